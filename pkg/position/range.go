package position

// Range is a half-open offset range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the length of the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Contains returns true if offset lies within the range.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// Intersect returns the visible part of span inside query.
//
// The span is rejected when it starts after the query ends, ends before the
// query starts, or is degenerate (Start > End). Touching bounds are not
// rejected, so a span that starts exactly at query.End yields an empty range.
func Intersect(span, query Range) (Range, bool) {
	if span.Start > query.End || span.End < query.Start || span.Start > span.End {
		return Range{}, false
	}

	return Range{
		Start: max(query.Start, span.Start),
		End:   min(query.End, span.End),
	}, true
}
