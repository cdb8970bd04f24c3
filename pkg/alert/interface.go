package alert

import (
	"context"

	"github.com/annolab/metahub/dao/model"
)

// Sender delivers a single outbox notification. SMTP is the only
// implementation today; tests plug in a recorder.
type Sender interface {
	Send(ctx context.Context, n *model.Notification) error
}
