// Package poller runs the periodic pipeline: new-deal discovery, alert
// matching, and the daily dedup retention sweep.
package poller

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"flydealsbot/pkg/logx"
)

// Scheduler wraps robfig/cron. Every job is chained with SkipIfStillRunning:
// a run still in progress when its next tick arrives suppresses that tick
// (skipped, never queued). Distinct triggers stay independent and may run
// concurrently with one another.
type Scheduler struct {
	log logx.Logger
	c   *cron.Cron
	ctx context.Context
}

func NewScheduler(log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		log: log,
		c: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start begins dispatching ticks. ctx bounds every job run: on shutdown,
// in-flight runs observe cancellation at their next external call.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.c.Start()
	s.log.Info("poller started")
}

// Stop halts new ticks and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
	s.log.Info("poller stopped")
}

// AddInterval registers a trigger firing every d.
func (s *Scheduler) AddInterval(name string, d time.Duration, run func(ctx context.Context) error) error {
	return s.add(name, fmt.Sprintf("@every %s", d), run)
}

// AddDaily registers a trigger firing once a day at HH:MM local time.
func (s *Scheduler) AddDaily(name, atHHMM string, run func(ctx context.Context) error) error {
	h, m, err := parseHHMM(atHHMM)
	if err != nil {
		return err
	}
	return s.add(name, fmt.Sprintf("%d %d * * *", m, h), run)
}

func (s *Scheduler) add(name, spec string, run func(ctx context.Context) error) error {
	_, err := s.c.AddFunc(spec, func() {
		ctx := s.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := run(ctx); err != nil {
			s.log.Warn("trigger run failed", logx.String("trigger", name),
				logx.Duration("took", time.Since(start)), logx.Err(err))
			return
		}
		s.log.Debug("trigger run ok", logx.String("trigger", name),
			logx.Duration("took", time.Since(start)))
	})
	return err
}

func parseHHMM(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// cronLogger adapts the repo logger to cron's logging interface.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	fields := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
