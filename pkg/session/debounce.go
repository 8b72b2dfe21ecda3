package session

import "github.com/yaklabco/gorulesync/internal/logging"

// NotifyEdit records a document mutation and schedules an analysis once
// the document has been quiet for the debounce interval.
func (s *Session) NotifyEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	stamp := max(s.clock.Now().UnixMilli(), s.lastEdit+1)
	s.lastEdit = stamp

	if s.pending != nil {
		s.pending.Stop()
	}
	s.pending = s.clock.AfterFunc(s.debounce, func() { s.settled(stamp) })
}

// settled runs when the debounce interval after the edit stamped stamp
// elapsed. It analyzes only if no later edit happened.
func (s *Session) settled(stamp int64) {
	s.mu.Lock()
	if s.closed || s.lastEdit != stamp {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	if err := s.analyze(s.ctx); err != nil {
		s.logger.Debug("analysis failed", logging.FieldError, err)
	}
}
