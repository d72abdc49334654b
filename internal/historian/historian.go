// Package historian drains logged match actions from the Redis queue into
// Postgres in batches, and marks matches abandoned once they go quiet.
package historian

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bloodrecall/internal/cache"
	"github.com/jason-s-yu/bloodrecall/internal/database"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source blocks up to timeout for queued records and returns at most max of
// them.
type Source func(ctx context.Context, timeout time.Duration, max int) ([]cache.MatchActionRecord, error)

// Sink persists what the Source produced.
type Sink interface {
	InsertMatchActions(ctx context.Context, recs []cache.MatchActionRecord) error
	MarkAbandonedMatches(ctx context.Context, cutoff time.Time) (int64, error)
}

// RedisSource pops from the shared action queue.
func RedisSource(rdb redis.Cmdable) Source {
	return func(ctx context.Context, timeout time.Duration, max int) ([]cache.MatchActionRecord, error) {
		return cache.PopMatchActions(ctx, rdb, timeout, max)
	}
}

type postgresSink struct{}

func (postgresSink) InsertMatchActions(ctx context.Context, recs []cache.MatchActionRecord) error {
	return database.InsertMatchActions(ctx, recs)
}

func (postgresSink) MarkAbandonedMatches(ctx context.Context, cutoff time.Time) (int64, error) {
	return database.MarkAbandonedMatches(ctx, cutoff)
}

// PostgresSink writes through the shared database pool.
func PostgresSink() Sink { return postgresSink{} }

// Options tune a Service. Zero values take the defaults.
type Options struct {
	BatchSize   int
	FlushDelay  time.Duration
	Inactivity  time.Duration // quiet period before a match is abandoned
	SweepEvery  time.Duration
	MaxBuffered int // records kept across failed flushes before the oldest are dropped
	MaxAttempts int // failed flushes before a suspect match's records are dropped
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.FlushDelay <= 0 {
		o.FlushDelay = 500 * time.Millisecond
	}
	if o.Inactivity <= 0 {
		o.Inactivity = 30 * time.Minute
	}
	if o.SweepEvery <= 0 {
		o.SweepEvery = time.Minute
	}
	if o.MaxBuffered < o.BatchSize {
		o.MaxBuffered = o.BatchSize * 50
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service is the historian worker.
type Service struct {
	source Source
	sink   Sink
	opts   Options
	log    logrus.FieldLogger

	batchMu   sync.Mutex
	batch     []cache.MatchActionRecord
	lastFlush time.Time
	failures  map[uuid.UUID]int // suspect matches and their failed flushes
}

func NewService(source Source, sink Sink, opts Options, logger logrus.FieldLogger) *Service {
	opts = opts.withDefaults()
	return &Service{
		source:    source,
		sink:      sink,
		opts:      opts,
		log:       logger,
		batch:     make([]cache.MatchActionRecord, 0, opts.BatchSize),
		lastFlush: opts.Now(),
		failures:  make(map[uuid.UUID]int),
	}
}

// Run blocks until ctx is cancelled, then flushes whatever is still buffered.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("historian started")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.inactivityLoop(gctx) })
	err := g.Wait()

	if ferr := s.Flush(context.WithoutCancel(ctx)); ferr != nil {
		s.log.WithError(ferr).Error("final flush failed")
	}
	s.log.Info("historian stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Service) readLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		recs, err := s.source(ctx, s.opts.FlushDelay, s.opts.BatchSize)
		if err != nil && ctx.Err() == nil {
			s.log.WithError(err).Warn("failed to pop match actions")
			if len(recs) == 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.opts.FlushDelay):
				}
			}
		}
		if len(recs) > 0 {
			s.append(recs)
		}
		if s.due() {
			if err := s.Flush(ctx); err != nil && ctx.Err() == nil {
				s.log.WithError(err).Error("flush failed; keeping batch for retry")
			}
		}
	}
}

func (s *Service) append(recs []cache.MatchActionRecord) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, recs...)
	if over := len(s.batch) - s.opts.MaxBuffered; over > 0 {
		s.log.WithField("dropped", over).Warn("historian buffer full; dropping oldest actions")
		s.batch = append(s.batch[:0], s.batch[over:]...)
	}
}

func (s *Service) due() bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	if len(s.batch) == 0 {
		return false
	}
	return len(s.batch) >= s.opts.BatchSize || s.opts.Now().Sub(s.lastFlush) >= s.opts.FlushDelay
}

// Flush writes the buffered records in one transaction. On failure the batch
// is retried per match so one bad match cannot hold back the rest; records
// that still fail stay buffered. Inserts ignore rows already present so a
// retry is safe.
//
// A match that fails while others in the same flush succeed becomes suspect.
// Once a suspect match has failed MaxAttempts times its records are dropped.
// When every match fails the database is assumed down and nothing is dropped.
func (s *Service) Flush(ctx context.Context) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	s.lastFlush = s.opts.Now()
	if len(s.batch) == 0 {
		return nil
	}
	err := s.sink.InsertMatchActions(ctx, s.batch)
	if err == nil {
		s.log.WithField("count", len(s.batch)).Debug("flushed match actions")
		s.batch = s.batch[:0]
		clear(s.failures)
		return nil
	}

	groups := groupByMatch(s.batch)
	if len(groups) == 1 && s.failures[groups[0].matchID] == 0 {
		return err
	}

	type failed struct {
		group matchGroup
		err   error
	}
	var bad []failed
	for _, g := range groups {
		if gerr := s.sink.InsertMatchActions(ctx, g.recs); gerr != nil {
			bad = append(bad, failed{g, gerr})
			continue
		}
		delete(s.failures, g.matchID)
	}
	isolated := len(bad) < len(groups)

	kept := make([]cache.MatchActionRecord, 0, len(s.batch))
	errs := make([]error, 0, len(bad))
	for _, f := range bad {
		id := f.group.matchID
		if isolated || s.failures[id] > 0 {
			s.failures[id]++
		}
		if s.failures[id] >= s.opts.MaxAttempts {
			s.log.WithError(f.err).WithFields(logrus.Fields{
				"match_id": id,
				"dropped":  len(f.group.recs),
			}).Error("giving up on match actions")
			delete(s.failures, id)
			continue
		}
		kept = append(kept, f.group.recs...)
		errs = append(errs, fmt.Errorf("match %s: %w", id, f.err))
	}
	s.batch = kept
	return errors.Join(errs...)
}

type matchGroup struct {
	matchID uuid.UUID
	recs    []cache.MatchActionRecord
}

// groupByMatch splits recs per match, keeping first-seen order.
func groupByMatch(recs []cache.MatchActionRecord) []matchGroup {
	var groups []matchGroup
	index := make(map[uuid.UUID]int)
	for _, r := range recs {
		i, ok := index[r.MatchID]
		if !ok {
			i = len(groups)
			index[r.MatchID] = i
			groups = append(groups, matchGroup{matchID: r.MatchID})
		}
		groups[i].recs = append(groups[i].recs, r)
	}
	return groups
}

// Buffered reports how many records await a flush.
func (s *Service) Buffered() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep marks every in-progress match idle longer than the inactivity window
// as abandoned.
func (s *Service) Sweep(ctx context.Context) {
	cutoff := s.opts.Now().Add(-s.opts.Inactivity)
	n, err := s.sink.MarkAbandonedMatches(ctx, cutoff)
	if err != nil {
		s.log.WithError(err).Error("failed to mark abandoned matches")
		return
	}
	if n > 0 {
		s.log.WithField("count", n).Info("marked matches abandoned")
	}
}
