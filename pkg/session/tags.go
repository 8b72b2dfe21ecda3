package session

import (
	"github.com/yaklabco/gorulesync/pkg/position"
)

// Tags maps the annotations onto text and returns those overlapping query.
// Annotations whose positions no longer exist in text are skipped.
func (s *Session) Tags(text string, query position.Range) []TagSpan {
	s.mu.Lock()
	annotations := s.annotations
	s.mu.Unlock()

	if len(annotations) == 0 {
		return nil
	}

	mapper := position.NewMapper(text)
	tags := make([]TagSpan, 0, len(annotations))

	for i := range annotations {
		annotation := &annotations[i]

		start, err := mapper.Offset(annotation.Start.Line, annotation.Start.Col)
		if err != nil {
			continue
		}
		end, err := mapper.Offset(annotation.End.Line, annotation.End.Col)
		if err != nil {
			continue
		}

		span, ok := position.Intersect(position.Range{Start: start, End: end}, query)
		if !ok {
			continue
		}

		tags = append(tags, TagSpan{Span: span, Annotation: annotation})
	}

	return tags
}
