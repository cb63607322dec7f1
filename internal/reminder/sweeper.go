// Package reminder periodically scans for tasks approaching their due
// date and publishes due-soon events to the websocket hub.
package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/taskhive/taskhive-be/internal/models"
)

// TaskSource lists incomplete tasks due within a window.
type TaskSource interface {
	DueSoon(ctx context.Context, within time.Duration) ([]models.Task, error)
}

// Publisher fans an event out to connected clients.
type Publisher interface {
	Publish(action string, task models.Task)
}

// Sweeper runs on a cron schedule and emits one task.due_soon event per
// task entering the lookahead window. A task is re-announced only if
// its due date moves.
type Sweeper struct {
	tasks     TaskSource
	publisher Publisher
	schedule  cron.Schedule
	lookahead time.Duration
	done      chan struct{}
	notified  map[string]time.Time
}

// New creates a Sweeper. cronExpr is a standard five-field cron
// expression (descriptors like @hourly also work).
func New(tasks TaskSource, publisher Publisher, cronExpr string, lookahead time.Duration) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		tasks:     tasks,
		publisher: publisher,
		schedule:  schedule,
		lookahead: lookahead,
		done:      make(chan struct{}),
		notified:  make(map[string]time.Time),
	}, nil
}

// Run executes sweeps on the configured schedule until Stop is called.
func (s *Sweeper) Run() {
	log.Info().Dur("lookahead", s.lookahead).Msg("Starting due-date sweeper...")

	// Run once immediately on start
	s.sweep()

	for {
		timer := time.NewTimer(time.Until(s.schedule.Next(time.Now())))
		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping due-date sweeper.")
			return
		case <-timer.C:
			s.sweep()
		}
	}
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() {
	close(s.done)
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tasks, err := s.tasks.DueSoon(ctx, s.lookahead)
	if err != nil {
		log.Error().Err(err).Msg("Due-date sweep failed")
		return
	}

	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		seen[task.ID] = true
		if task.DueDate == nil {
			continue
		}
		if last, ok := s.notified[task.ID]; ok && last.Equal(*task.DueDate) {
			continue
		}
		s.notified[task.ID] = *task.DueDate
		s.publisher.Publish("task.due_soon", task)
	}

	// Forget tasks that left the window so a future due date can
	// announce again.
	for id := range s.notified {
		if !seen[id] {
			delete(s.notified, id)
		}
	}
}
