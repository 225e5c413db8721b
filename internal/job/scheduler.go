package job

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"rotchain-bot/internal/metrics"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Definition is one recurring digest.
type Definition struct {
	Name     string
	Interval time.Duration
	FirstRun time.Duration
	Run      func(ctx context.Context) (string, error)
}

type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Recorder keeps the last delivered text of a job.
type Recorder interface {
	Record(ctx context.Context, job, text string) error
}

// Scheduler delivers every definition's output to the broadcast chat.
type Scheduler struct {
	chatID   int64
	loc      *time.Location
	sender   Sender
	recorder Recorder
	defs     []Definition

	mu    sync.Mutex
	sched gocron.Scheduler
}

func NewScheduler(chatID int64, loc *time.Location, sender Sender, recorder Recorder, defs []Definition) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{chatID: chatID, loc: loc, sender: sender, recorder: recorder, defs: defs}
}

// Start registers every definition and starts the scheduler. It shuts down
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(s.loc))
	if err != nil {
		return err
	}

	now := time.Now()
	for _, def := range s.defs {
		task := func(jobCtx context.Context) {
			s.execute(jobCtx, def)
		}
		_, err := scheduler.NewJob(
			gocron.DurationJob(def.Interval),
			gocron.NewTask(task),
			gocron.WithName(def.Name),
			gocron.WithStartAt(gocron.WithStartDateTime(now.Add(def.FirstRun))),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return fmt.Errorf("schedule %s: %w", def.Name, err)
		}
		logrus.Infof("Scheduled %s every %s (first run in %s)", def.Name, def.Interval, def.FirstRun)
	}

	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
	scheduler.Start()

	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	sched := s.sched
	s.sched = nil
	s.mu.Unlock()
	if sched == nil {
		return nil
	}
	return sched.Shutdown()
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

// execute runs one definition. Nothing it does can escape into the scheduler:
// errors are logged and counted and panics are recovered.
func (s *Scheduler) execute(ctx context.Context, def Definition) {
	execID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"job": def.Name, "exec_id": execID})

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Job panicked: %v", r)
			metrics.JobRuns.WithLabelValues(def.Name, "panic").Inc()
		}
	}()

	text, err := def.Run(ctx)
	if err == nil && strings.TrimSpace(text) == "" {
		log.Debug("Job produced no message")
		metrics.JobRuns.WithLabelValues(def.Name, "empty").Inc()
		return
	}
	if err == nil {
		err = s.sender.Send(ctx, s.chatID, text)
	}
	if err != nil {
		log.WithError(err).Warn("Job failed")
		metrics.JobRuns.WithLabelValues(def.Name, metrics.Outcome(err)).Inc()
		return
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, def.Name, text); err != nil {
			log.WithError(err).Warn("Failed to store digest")
		}
	}
	metrics.JobRuns.WithLabelValues(def.Name, metrics.Outcome(nil)).Inc()
	log.Info("Job delivered")
}
