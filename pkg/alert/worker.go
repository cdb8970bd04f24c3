package alert

import (
	"context"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/annolab/metahub/dao/store"
	"github.com/annolab/metahub/pkg/metrics"
)

// Worker drains the notification outbox on a cron schedule. Delivery
// is at-least-once: a failed send bumps the attempt counter and the
// row is retried on the next sweep until maxAttempts is reached.
// Nothing here can affect the transitions that enqueued the rows; they
// committed long before the sweep runs.
type Worker struct {
	stores      *store.Stores
	sender      Sender
	cron        *cron.Cron
	maxAttempts int
	batchSize   int
}

func NewWorker(db *gorm.DB, sender Sender, maxAttempts, batchSize int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Worker{
		stores:      store.New(db),
		sender:      sender,
		cron:        cron.New(),
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
	}
}

// Start schedules the sweep, e.g. with spec "@every 30s".
func (w *Worker) Start(spec string) error {
	if _, err := w.cron.AddFunc(spec, w.Sweep); err != nil {
		return err
	}
	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
}

// Sweep sends every pending outbox row once.
func (w *Worker) Sweep() {
	ctx := context.Background()
	pending, err := w.stores.Notifications.ListPending(ctx, w.maxAttempts, w.batchSize)
	if err != nil {
		klog.Errorf("notification sweep: list pending: %v", err)
		return
	}

	for i := range pending {
		n := &pending[i]
		if err := w.sender.Send(ctx, n); err != nil {
			klog.Errorf("notification %d (%s to %s) failed: %v", n.ID, n.Kind, n.Recipient, err)
			metrics.Notification(string(n.Kind), metrics.OutcomeError)
			if markErr := w.stores.Notifications.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				klog.Errorf("notification %d: mark failed: %v", n.ID, markErr)
			}
			continue
		}
		metrics.Notification(string(n.Kind), metrics.OutcomeOK)
		if err := w.stores.Notifications.MarkSent(ctx, n.ID); err != nil {
			// The next sweep resends; acceptable under at-least-once.
			klog.Errorf("notification %d: mark sent: %v", n.ID, err)
		}
	}
}
