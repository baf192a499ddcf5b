// Package services contains the application-facing operations the HTTP
// layer exposes: creating applications from templates, the test fixture,
// address validation completion, and operator error recovery.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/landdiv/landflow/pkg/designer"
	"github.com/landdiv/landflow/pkg/models"
	"github.com/landdiv/landflow/pkg/records"
	"github.com/landdiv/landflow/pkg/store"
)

type ApplicationService struct {
	applications *records.Applications
	designer     *designer.Service
	logger       *slog.Logger
	now          func() time.Time
}

func NewApplicationService(applications *records.Applications, designerService *designer.Service, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		designer:     designerService,
		logger:       logger.With("module", "services"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service's time source for tests.
func (s *ApplicationService) WithClock(now func() time.Time) *ApplicationService {
	s.now = now

	return s
}

func (s *ApplicationService) Get(ctx context.Context, id string) (*models.ApplicationRecord, error) {
	return s.applications.Get(ctx, id)
}

func (s *ApplicationService) List(ctx context.Context) ([]*models.ApplicationRecord, error) {
	return s.applications.List(ctx, store.ListOptions{OrderBy: "createdAt", Desc: true})
}

// Create stores a new application with the given embedded workflow. The
// creation is published as a change, which starts the advancement engine on
// the first step.
func (s *ApplicationService) Create(ctx context.Context, workflow []models.WorkflowStep, applicationData map[string]any) (string, error) {
	record := models.NewApplicationRecord(workflow, applicationData)

	id, err := s.applications.Create(ctx, record)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Created application", "application_id", id, "steps", len(workflow))

	return id, nil
}

// CreateFromTemplate linearizes a stored designer template and embeds the
// resulting step list into a fresh application.
func (s *ApplicationService) CreateFromTemplate(ctx context.Context, templateID string, applicationData map[string]any) (string, error) {
	workflow, err := s.designer.Steps(ctx, templateID)
	if err != nil {
		return "", fmt.Errorf("failed to load workflow template %s: %w", templateID, err)
	}

	return s.Create(ctx, workflow, applicationData)
}

// CreateTestApplication seeds the canonical four-step workflow used to
// exercise the engine end to end. The final step carries an approver so the
// whole chain can be driven through the approval intake.
func (s *ApplicationService) CreateTestApplication(ctx context.Context) (string, error) {
	workflow := []models.WorkflowStep{
		{
			Node: "Submission",
			Type: models.StepTypeStart,
		},
		{
			Node:          "Township Review",
			Type:          models.StepTypeApproval,
			ApproverEmail: "test-township@example.com",
			Requirements:  []string{"survey", "deed"},
		},
		{
			Node:          "Address Validation",
			Type:          models.StepTypeAddress,
			ApproverEmail: "test-address@example.com",
		},
		{
			Node:          "Final Approval",
			Type:          models.StepTypeEnd,
			ApproverEmail: "test-final@example.com",
		},
	}

	applicationData := map[string]any{
		"applicantEmail":  "test-applicant@example.com",
		"propertyAddress": "123 Test Street",
		"submittedAt":     s.now(),
	}

	return s.Create(ctx, workflow, applicationData)
}

// CompleteAddressValidation advances an application waiting on an address
// step. The external validation system calls this when the new address has
// been assigned.
func (s *ApplicationService) CompleteAddressValidation(ctx context.Context, id string, result map[string]any) error {
	app, err := s.applications.Get(ctx, id)
	if err != nil {
		return err
	}

	step, ok := app.CurrentStep()
	if !ok {
		return fmt.Errorf("application %s has an invalid workflow configuration", id)
	}

	if step.Type != models.StepTypeAddress {
		return fmt.Errorf("application %s is not pending address validation", id)
	}

	now := s.now()

	ops := []store.Op{
		store.Set("lastUpdated", now),
		store.ArrayAppend("history", models.HistoryEntry{
			Node:      step.Node,
			Action:    "validated",
			Timestamp: now,
		}),
	}

	if result != nil {
		ops = append(ops, store.Set("parcelInfo.addressValidation", result))
	}

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

	err = s.applications.Update(ctx, id, ops)
	if err != nil {
		return fmt.Errorf("failed to complete address validation for %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Completed address validation", "application_id", id, "node", step.Node)

	return nil
}

// ClearError is the operator reset for a tripped safety limit or an absorbed
// processing error. It removes the error, zeroes the update counters, and
// restores the status derived from the current step.
func (s *ApplicationService) ClearError(ctx context.Context, id string) error {
	app, err := s.applications.Get(ctx, id)
	if err != nil {
		return err
	}

	if app.Error == nil {
		return fmt.Errorf("application %s has no error to clear", id)
	}

	step, ok := app.CurrentStep()
	if !ok {
		return fmt.Errorf("application %s has an invalid workflow configuration", id)
	}

	now := s.now()

	ops := []store.Op{
		store.Unset("error"),
		store.Set("status", models.StatusForStep(step)),
		store.Set("updates", models.UpdateCounters{
			Total:         0,
			RecentUpdates: []time.Time{},
			FirstUpdate:   now,
		}),
		store.Set("lastUpdated", now),
	}

	err = s.applications.Update(ctx, id, ops)
	if err != nil {
		return fmt.Errorf("failed to clear error on %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Cleared application error", "application_id", id, "node", step.Node)

	return nil
}
