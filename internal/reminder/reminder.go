// Package reminder runs the daily job that mails both parties of every
// appointment scheduled for the next calendar day.
package reminder

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"telepsychiatry-server/internal/notify"
	"telepsychiatry-server/internal/schedule"
	"telepsychiatry-server/internal/scheduling"
)

// Worker owns the cron schedule for reminder delivery.
type Worker struct {
	repo     scheduling.Repository
	notifier notify.Notifier
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// NewWorker builds a reminder worker firing daily at the given UTC hour.
func NewWorker(repo scheduling.Repository, notifier notify.Notifier, logger *zap.Logger, hourUTC int) *Worker {
	w := &Worker{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		now:      time.Now,
	}
	// Registration only fails on a malformed expression, which this is not.
	w.cron.AddFunc(fmt.Sprintf("0 %d * * *", hourUTC), w.Run)
	return w
}

// Start begins the cron schedule in its own goroutine.
func (w *Worker) Start() {
	w.cron.Start()
	w.logger.Info("reminder worker started")
}

// Stop halts the schedule, waiting for a running job to finish.
func (w *Worker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

// Run sends a reminder for every appointment still scheduled tomorrow.
// Exported so an operator endpoint or test can trigger a pass directly.
func (w *Worker) Run() {
	tomorrow := schedule.NormalizeUTCDay(w.now().AddDate(0, 0, 1))

	appointments, err := w.repo.ScheduledOnDay(tomorrow)
	if err != nil {
		w.logger.Error("reminder pass failed to list appointments",
			zap.Time("day", tomorrow), zap.Error(err))
		return
	}

	for i := range appointments {
		w.notifier.AppointmentReminder(&appointments[i])
	}

	w.logger.Info("reminder pass complete",
		zap.Time("day", tomorrow), zap.Int("appointments", len(appointments)))
}
