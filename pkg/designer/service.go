package designer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/landdiv/landflow/pkg/models"
	"github.com/landdiv/landflow/pkg/store"
)

// Service provides CRUD over workflow templates. Every write is validated
// against the graph schema and must linearize cleanly, so a stored template
// is always usable for application creation.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(s store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  s,
		logger: logger.With("module", "designer"),
	}
}

func (s *Service) Get(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	var template models.WorkflowTemplate

	err := s.store.Get(ctx, store.CollectionWorkflows, id, &template)
	if err != nil {
		return nil, err
	}

	return &template, nil
}

func (s *Service) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	var templates []*models.WorkflowTemplate

	err := s.store.List(ctx, store.CollectionWorkflows, store.ListOptions{OrderBy: "name"}, &templates)
	if err != nil {
		return nil, err
	}

	return templates, nil
}

func (s *Service) Create(ctx context.Context, template *models.WorkflowTemplate) (string, error) {
	err := s.validate(template)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	id, err := s.store.Create(ctx, store.CollectionWorkflows, template)
	if err != nil {
		return "", fmt.Errorf("failed to create workflow template: %w", err)
	}

	template.ID = id

	s.logger.InfoContext(ctx, "Created workflow template", "template_id", id, "name", template.Name, "nodes", len(template.Nodes))

	return id, nil
}

func (s *Service) Update(ctx context.Context, id string, template *models.WorkflowTemplate) error {
	err := s.validate(template)
	if err != nil {
		return err
	}

	// Read first so updating a missing template reports NotFound rather
	// than creating an orphan.
	_, err = s.Get(ctx, id)
	if err != nil {
		return err
	}

	ops := []store.Op{
		store.Set("name", template.Name),
		store.Set("nodes", template.Nodes),
		store.Set("edges", template.Edges),
		store.Set("updatedAt", time.Now().UTC()),
	}

	err = s.store.Update(ctx, store.CollectionWorkflows, id, ops)
	if err != nil {
		return fmt.Errorf("failed to update workflow template %s: %w", id, err)
	}

	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, store.CollectionWorkflows, id)
}

// Steps loads a template and linearizes it for embedding into a new
// application record.
func (s *Service) Steps(ctx context.Context, id string) ([]models.WorkflowStep, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return Linearize(template.Nodes, template.Edges)
}

func (s *Service) validate(template *models.WorkflowTemplate) error {
	err := validateTemplateSchema(template)
	if err != nil {
		return err
	}

	_, err = Linearize(template.Nodes, template.Edges)
	if err != nil {
		return fmt.Errorf("workflow template does not linearize: %w", err)
	}

	return nil
}
