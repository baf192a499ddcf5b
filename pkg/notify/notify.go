// Package notify delivers approver notifications when an application reaches
// a step that needs a decision.
package notify

import (
	"context"
	"log/slog"

	"github.com/landdiv/landflow/pkg/models"
)

// Notification describes a pending decision for one approver.
type Notification struct {
	ApplicationID string
	Step          models.WorkflowStep
	Status        string
}

type Notifier interface {
	NotifyApprover(ctx context.Context, n Notification) error
}

// LogNotifier records the notification intent without sending anything.
// Deployments without a mail integration run with this.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) NotifyApprover(ctx context.Context, notification Notification) error {
	n.logger.InfoContext(ctx, "Would send approval request email",
		"application_id", notification.ApplicationID,
		"node", notification.Step.Node,
		"approver", notification.Step.ApproverEmail,
		"status", notification.Status,
	)

	return nil
}
