package mining

import (
	"context"
	"errors"
	"fmt"
	"log"

	"archmine/internal/ignore"
	"archmine/internal/incremental"
)

// Sink receives a front end's output. BeginFile returning false means the
// front end must not mine that file, nor any later one.
type Sink interface {
	BeginFile(path string) bool
	EndFile()
	Emit(ev Event)
}

// Frontend turns source files into declaration events.
type Frontend interface {
	Mine(ctx context.Context, files []string, sink Sink) error
}

// Options configure Run.
type Options struct {
	Ignore ignore.Predicates
	// Checkpoint is where the session is committed. Empty skips the commit.
	Checkpoint string
}

// Report summarizes one Run.
type Report struct {
	Planned   []string
	Completed []string
	Skipped   []string
	Stats     Stats
	Rejected  int
	Cancelled bool
}

// Run plans the session against files, feeds the planned files through fe
// and commits the result. Cancelling ctx stops mining at the next file
// boundary; whatever completed before is still committed.
func Run(ctx context.Context, fe Frontend, sess *incremental.Session, files []string, opts Options) (*Report, error) {
	preds := opts.Ignore
	if preds == nil {
		preds = ignore.None
	}

	var candidates []string
	for _, f := range files {
		if !preds.IsPathIgnored(f) {
			candidates = append(candidates, f)
		}
	}

	report := &Report{Planned: sess.Plan(candidates)}
	stop := sess.WatchContext(ctx)
	defer stop()

	sink := &sessionSink{sess: sess, miner: NewMiner(sess.Table(), preds)}
	err := fe.Mine(ctx, report.Planned, sink)
	switch {
	case errors.Is(err, context.Canceled):
		sess.Cancel()
	case err != nil:
		return nil, fmt.Errorf("front end failed: %w", err)
	}

	report.Completed = sess.Completed()
	report.Skipped = sess.Skipped()
	report.Stats = sink.miner.Stats()
	report.Rejected = sink.rejected
	report.Cancelled = sess.Cancelled()

	if opts.Checkpoint != "" {
		if err := sess.Commit(opts.Checkpoint); err != nil {
			return report, err
		}
	}
	return report, nil
}

type sessionSink struct {
	sess     *incremental.Session
	miner    *Miner
	rejected int
}

func (s *sessionSink) BeginFile(path string) bool { return s.sess.BeginFile(path) }

func (s *sessionSink) EndFile() { s.sess.EndFile() }

func (s *sessionSink) Emit(ev Event) {
	if err := s.miner.Apply(ev); err != nil {
		s.rejected++
		log.Printf("⚠️ rejected event: %v", err)
	}
}
