// Package incremental coordinates a mining session across runs: which files
// to re-analyze, which files made it into the table, and the checkpoint that
// records both.
package incremental

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync/atomic"

	"archmine/internal/persist"
	"archmine/internal/symtab"
)

// Plan returns the files of all that the next session must analyze. Every
// ledger entry except the last is trusted; the last one may have been in
// flight when the previous run stopped, so it is analyzed again. The order of
// all is preserved.
func Plan(all, ledger []string) []string {
	trusted := make(map[string]struct{}, len(ledger))
	if len(ledger) > 0 {
		for _, f := range ledger[:len(ledger)-1] {
			trusted[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(all))
	for _, f := range all {
		if _, ok := trusted[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Session owns one table for the duration of a run. All methods except
// Cancel and Cancelled must be called from a single goroutine.
type Session struct {
	table  *symtab.Store
	ledger []string

	completed []string
	skipped   []string
	current   string
	inFlight  bool

	cancelled atomic.Bool
}

// NewSession starts a session with an empty table and ledger.
func NewSession() *Session {
	return &Session{table: symtab.NewStore()}
}

// Open starts a session from the checkpoint at path. A missing checkpoint is
// a first run.
func Open(path string) (*Session, error) {
	table, ledger, err := persist.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return &Session{table: table, ledger: ledger}, nil
}

// Table returns the session's table.
func (s *Session) Table() *symtab.Store { return s.table }

// PreviousLedger returns the ledger the session was opened with.
func (s *Session) PreviousLedger() []string { return slices.Clone(s.ledger) }

// Plan applies the package-level Plan to the session's loaded ledger.
func (s *Session) Plan(all []string) []string { return Plan(all, s.ledger) }

// BeginFile announces that path is about to be mined. It returns false once
// the session is cancelled; the file is then recorded as skipped.
func (s *Session) BeginFile(path string) bool {
	if s.cancelled.Load() {
		s.skipped = append(s.skipped, path)
		return false
	}
	s.current = path
	s.inFlight = true
	return true
}

// EndFile marks the file from the last BeginFile as completed. A file that
// was in flight when the session got cancelled does not count.
func (s *Session) EndFile() {
	if !s.inFlight {
		return
	}
	s.inFlight = false
	if s.cancelled.Load() {
		log.Printf("⚠️ %s interrupted by cancellation; it will be mined again next run", s.current)
		s.skipped = append(s.skipped, s.current)
		return
	}
	s.completed = append(s.completed, s.current)
}

// Cancel raises the session's stop flag. Safe for concurrent use.
func (s *Session) Cancel() { s.cancelled.Store(true) }

func (s *Session) Cancelled() bool { return s.cancelled.Load() }

// WatchContext cancels the session when ctx is done. The returned function
// detaches the watch.
func (s *Session) WatchContext(ctx context.Context) (stop func()) {
	if ctx.Err() != nil {
		s.Cancel()
	}
	detach := context.AfterFunc(ctx, s.Cancel)
	return func() { detach() }
}

// Completed returns the files completed in this run, in completion order.
func (s *Session) Completed() []string { return slices.Clone(s.completed) }

// Skipped returns the files refused or interrupted by cancellation.
func (s *Session) Skipped() []string { return slices.Clone(s.skipped) }

// Ledger computes the ledger to commit: the trusted prefix of the previous
// ledger, then the previous last entry if it was completed again, then the
// other files completed in this run. No file appears twice.
func (s *Session) Ledger() []string {
	done := make(map[string]struct{}, len(s.completed))
	for _, f := range s.completed {
		done[f] = struct{}{}
	}

	seen := make(map[string]struct{}, len(s.ledger)+len(s.completed))
	out := make([]string, 0, len(s.ledger)+len(s.completed))
	add := func(f string) {
		if _, ok := seen[f]; ok {
			return
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}

	if n := len(s.ledger); n > 0 {
		for _, f := range s.ledger[:n-1] {
			add(f)
		}
		if last := s.ledger[n-1]; hasKey(done, last) {
			add(last)
		}
	}
	for _, f := range s.completed {
		add(f)
	}
	return out
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

// Commit writes the table and the new ledger to path as one checkpoint. On
// failure the previous checkpoint is left untouched.
func (s *Session) Commit(path string) error {
	if s.inFlight {
		return fmt.Errorf("cannot commit while %s is in flight", s.current)
	}
	if err := persist.Save(path, s.table, s.Ledger()); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}
