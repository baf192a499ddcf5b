// Package approval implements the intake path for human decisions on
// pending approval steps.
//
// Intake is split in two: Submit validates a decision against the current
// application state and stores it as an immutable approval record, and Apply
// consumes the stored record to drive the application forward. The creation
// event is the consumption trigger, so a decision accepted by Submit is
// applied exactly once by the engine worker.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/landdiv/landflow/pkg/authz"
	"github.com/landdiv/landflow/pkg/models"
	"github.com/landdiv/landflow/pkg/records"
	"github.com/landdiv/landflow/pkg/store"
)

// Submission is a validated decision request. Field validation happens at
// the transport boundary; by the time a Submission reaches the intake the
// required fields are present and the action is one of the accepted two.
type Submission struct {
	ApplicationID string
	ApproverEmail string
	Action        models.ApprovalAction
	Comments      string
	Source        string
	EmailMetadata map[string]any
}

type Intake struct {
	applications *records.Applications
	approvals    *records.Approvals
	policy       authz.Policy
	logger       *slog.Logger
	now          func() time.Time
}

func NewIntake(applications *records.Applications, approvals *records.Approvals, policy authz.Policy, logger *slog.Logger) *Intake {
	return &Intake{
		applications: applications,
		approvals:    approvals,
		policy:       policy,
		logger:       logger.With("module", "approval"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the intake's time source for tests.
func (i *Intake) WithClock(now func() time.Time) *Intake {
	i.now = now

	return i
}

// Submit validates the decision against the application's current step and,
// if it would be accepted, stores it as an approval record. Validation
// failures surface to the caller and leave both the application and the
// approvals collection untouched.
func (i *Intake) Submit(ctx context.Context, submission Submission) (string, error) {
	app, step, err := i.authorize(ctx, submission.ApplicationID, submission.ApproverEmail)
	if err != nil {
		return "", err
	}

	record := &models.ApprovalRecord{
		ApplicationID: submission.ApplicationID,
		Action:        submission.Action,
		ApproverEmail: submission.ApproverEmail,
		Comments:      submission.Comments,
		Source:        submission.Source,
		EmailMetadata: submission.EmailMetadata,
		CreatedAt:     i.now(),
	}

	id, err := i.approvals.Create(ctx, record)
	if err != nil {
		return "", err
	}

	i.logger.InfoContext(ctx, "Recorded approval decision",
		"approval_id", id,
		"application_id", app.ID,
		"node", step.Node,
		"action", string(submission.Action),
		"approver", submission.ApproverEmail,
	)

	return id, nil
}

// Apply consumes a stored approval record and mutates the application:
// an audit entry always, then either advancement (approve) or a terminal
// rejection at the current node (reject). The resulting write re-enters the
// advancement engine through the change channel.
func (i *Intake) Apply(ctx context.Context, record *models.ApprovalRecord) error {
	app, step, err := i.authorize(ctx, record.ApplicationID, record.ApproverEmail)
	if err != nil {
		return err
	}

	now := i.now()

	ops := []store.Op{
		store.Set("lastUpdated", now),
		store.ArrayAppend("history", models.HistoryEntry{
			Node:      step.Node,
			Action:    string(record.Action),
			Approver:  record.ApproverEmail,
			Comments:  record.Comments,
			Timestamp: now,
		}),
	}

	switch record.Action {
	case models.ActionApprove:
		if app.AtLastStep() {
			ops = append(ops,
				store.Set("status", models.StatusComplete),
				store.Set("completedAt", now),
			)
		} else {
			next := app.Workflow[app.CurrentNode+1]
			ops = append(ops,
				store.Set("currentNode", app.CurrentNode+1),
				store.Set("status", "Awaiting "+next.Node),
			)
		}
	case models.ActionReject:
		ops = append(ops,
			store.Set("status", models.StatusRejected),
			store.Set("rejectedAt", now),
			store.Set("rejectionReason", record.Comments),
		)
	default:
		return fmt.Errorf("invalid approval action %q", record.Action)
	}

	err = i.applications.Update(ctx, app.ID, ops)
	if err != nil {
		return fmt.Errorf("failed to apply approval %s: %w", record.ID, err)
	}

	i.logger.InfoContext(ctx, "Applied approval decision",
		"approval_id", record.ID,
		"application_id", app.ID,
		"node", step.Node,
		"action", string(record.Action),
	)

	return nil
}

// authorize loads the application and checks the approver against the
// current step. Start steps are open; every other step requires an exact
// match with the designated approver.
func (i *Intake) authorize(ctx context.Context, applicationID, approverEmail string) (*models.ApplicationRecord, models.WorkflowStep, error) {
	app, err := i.applications.Get(ctx, applicationID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, models.WorkflowStep{}, fmt.Errorf("%w: %s", ErrNotFound, applicationID)
		}

		return nil, models.WorkflowStep{}, err
	}

	step, ok := app.CurrentStep()
	if !ok {
		return nil, models.WorkflowStep{}, fmt.Errorf("application %s has an invalid workflow configuration", applicationID)
	}

	if !i.policy.CanActOnStep(authz.Identity{Email: approverEmail}, step) {
		return nil, models.WorkflowStep{}, fmt.Errorf("%w: %s is not the approver for %s", ErrUnauthorized, approverEmail, step.Node)
	}

	return app, step, nil
}
