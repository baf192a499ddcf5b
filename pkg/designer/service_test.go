package designer

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landdiv/landflow/pkg/models"
	"github.com/landdiv/landflow/pkg/store"
	"github.com/landdiv/landflow/pkg/store/file"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	return NewService(file.NewStore(t.TempDir()), slog.Default())
}

func TestService_CreateAndSteps(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	nodes, edges := fourStepGraph()

	id, err := service.Create(ctx, &models.WorkflowTemplate{
		Name:  "Standard Land Division",
		Nodes: nodes,
		Edges: edges,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	template, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Standard Land Division", template.Name)
	assert.False(t, template.CreatedAt.IsZero())

	steps, err := service.Steps(ctx, id)
	require.NoError(t, err)
	require.Len(t, steps, 4)
	assert.Equal(t, models.StepTypeStart, steps[0].Type)
	assert.Equal(t, "township@example.com", steps[1].ApproverEmail)
}

func TestService_CreateRejectsInvalidGraph(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	nodes, edges := fourStepGraph()
	edges = append(edges, models.GraphEdge{ID: "e4", Source: "n1", Target: "n3"})

	_, err := service.Create(ctx, &models.WorkflowTemplate{
		Name:  "Branching",
		Nodes: nodes,
		Edges: edges,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBranchingGraph)
}

func TestService_CreateRejectsMissingName(t *testing.T) {
	service := newTestService(t)

	nodes, edges := fourStepGraph()

	_, err := service.Create(context.Background(), &models.WorkflowTemplate{
		Nodes: nodes,
		Edges: edges,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestService_UpdateMissingTemplate(t *testing.T) {
	service := newTestService(t)

	nodes, edges := fourStepGraph()

	err := service.Update(context.Background(), "missing", &models.WorkflowTemplate{
		Name:  "Renamed",
		Nodes: nodes,
		Edges: edges,
	})
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestService_UpdateReplacesGraph(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	nodes, edges := fourStepGraph()

	id, err := service.Create(ctx, &models.WorkflowTemplate{
		Name:  "Original",
		Nodes: nodes,
		Edges: edges,
	})
	require.NoError(t, err)

	err = service.Update(ctx, id, &models.WorkflowTemplate{
		Name: "Two Step",
		Nodes: []models.GraphNode{
			{ID: "a", Type: models.GraphNodeStart, Data: models.GraphNodeData{Label: "Submission"}},
			{ID: "b", Type: models.GraphNodeEnd, Data: models.GraphNodeData{Label: "Done"}},
		},
		Edges: []models.GraphEdge{{ID: "e", Source: "a", Target: "b"}},
	})
	require.NoError(t, err)

	template, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Two Step", template.Name)
	assert.Len(t, template.Nodes, 2)
	assert.True(t, template.UpdatedAt.After(template.CreatedAt) || template.UpdatedAt.Equal(template.CreatedAt))
}

func TestService_Delete(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	nodes, edges := fourStepGraph()

	id, err := service.Create(ctx, &models.WorkflowTemplate{Name: "Doomed", Nodes: nodes, Edges: edges})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, id))

	_, err = service.Get(ctx, id)
	assert.True(t, store.IsNotFound(err))
}
