package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/position"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
	"github.com/yaklabco/gorulesync/pkg/rulesource"
)

// Refresh analyzes the document now, bypassing the debounce.
// A failed analysis keeps the previous annotations and returns the error.
func (s *Session) Refresh(ctx context.Context) error {
	if !s.begin() {
		return nil
	}
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	return s.analyze(ctx)
}

// analyze sends the document to the rule source and replaces the
// annotations with the result. Without rules nothing is sent and the
// annotations are kept.
func (s *Session) analyze(ctx context.Context) error {
	if !s.rules.WaitReady(ctx, s.readyTimeout) {
		s.logger.Debug("rule cache not ready")
	}

	rules := s.rules.RulesForLanguage(s.language)
	if len(rules) == 0 {
		s.logger.Debug("no rules for language")
		return nil
	}

	text := s.doc.Text()
	req := s.buildRequest(text, rules)

	started := time.Now()
	resp, err := s.source.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", s.doc.Path(), err)
	}

	annotations, duplicates := s.toAnnotations(resp)
	cacheStamp := s.rules.Timestamp()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.annotations = annotations
	s.lastCacheUpdate = cacheStamp
	s.mu.Unlock()

	s.logger.Debug("analysis complete",
		logging.FieldRules, len(rules),
		logging.FieldAnnotations, len(annotations),
		logging.FieldDuplicates, duplicates,
		logging.FieldDuration, time.Since(started),
	)

	s.emit(TagsChanged{Span: position.Range{Start: 0, End: len(text)}})
	return nil
}

// buildRequest encodes the whole document. Carriage returns are removed so
// that reported columns line up with LF-only line starts.
func (s *Session) buildRequest(text string, rules []ruleset.Rule) rulesource.AnalysisRequest {
	content := strings.ReplaceAll(text, "\r", "")

	analysisRules := make([]rulesource.AnalysisRule, 0, len(rules))
	for _, rule := range rules {
		analysisRules = append(analysisRules, rulesource.NewAnalysisRule(rule))
	}

	return rulesource.AnalysisRequest{
		Filename:     s.doc.Path(),
		Language:     s.language.Normalize().WireName(),
		FileEncoding: rulesource.FileEncoding,
		CodeBase64:   base64.StdEncoding.EncodeToString([]byte(content)),
		Rules:        analysisRules,
		LogOutput:    s.logOutput,
	}
}

// toAnnotations converts a response, dropping duplicate violations.
func (s *Session) toAnnotations(resp *rulesource.AnalysisResponse) ([]ruleset.Annotation, int) {
	if resp == nil {
		return []ruleset.Annotation{}, 0
	}

	for _, msg := range resp.Errors {
		s.logger.Debug("analyzer error", logging.FieldError, msg)
	}

	annotations := make([]ruleset.Annotation, 0)
	duplicates := 0

	for _, rv := range resp.RuleResponses {
		for _, msg := range rv.Errors {
			s.logger.Debug("rule error", "rule", rv.Identifier, logging.FieldError, msg)
		}
		if rv.Output != "" {
			s.logger.Debug("rule output", "rule", rv.Identifier, "output", rv.Output)
		}

		unique := ruleset.DedupeViolations(rv.Violations)
		duplicates += len(rv.Violations) - len(unique)

		for _, v := range unique {
			annotations = append(annotations, ruleset.NewAnnotation(rv.Identifier, v))
		}
	}

	return annotations, duplicates
}
