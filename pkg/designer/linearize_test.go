package designer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landdiv/landflow/pkg/models"
)

func fourStepGraph() ([]models.GraphNode, []models.GraphEdge) {
	nodes := []models.GraphNode{
		{ID: "n1", Type: models.GraphNodeStart, Data: models.GraphNodeData{Label: "Submission"}},
		{ID: "n2", Type: models.GraphNodeApproval, Data: models.GraphNodeData{
			Label:        "Township Review",
			Email:        "township@example.com",
			Requirements: []string{"survey", "deed"},
		}},
		{ID: "n3", Type: models.GraphNodeAddress, Data: models.GraphNodeData{
			Label: "Address Validation",
			Email: "address@example.com",
		}},
		{ID: "n4", Type: models.GraphNodeEnd, Data: models.GraphNodeData{Label: "Final Approval"}},
	}
	edges := []models.GraphEdge{
		{ID: "e1", Source: "n1", Target: "n2"},
		{ID: "e2", Source: "n2", Target: "n3"},
		{ID: "e3", Source: "n3", Target: "n4"},
	}

	return nodes, edges
}

func TestLinearize_FourStepGraph(t *testing.T) {
	nodes, edges := fourStepGraph()

	steps, err := Linearize(nodes, edges)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, "Submission", steps[0].Node)
	assert.Equal(t, models.StepTypeStart, steps[0].Type)

	assert.Equal(t, "Township Review", steps[1].Node)
	assert.Equal(t, models.StepTypeApproval, steps[1].Type)
	assert.Equal(t, "township@example.com", steps[1].ApproverEmail)
	assert.Equal(t, []string{"survey", "deed"}, steps[1].Requirements)

	assert.Equal(t, models.StepTypeAddress, steps[2].Type)
	assert.Equal(t, models.StepTypeEnd, steps[3].Type)
}

func TestLinearize_NoStartNode(t *testing.T) {
	nodes := []models.GraphNode{
		{ID: "n1", Type: models.GraphNodeApproval, Data: models.GraphNodeData{Label: "Review"}},
	}

	_, err := Linearize(nodes, nil)
	assert.ErrorIs(t, err, ErrNoStartNode)
}

func TestLinearize_MultipleStartNodes(t *testing.T) {
	nodes := []models.GraphNode{
		{ID: "n1", Type: models.GraphNodeStart, Data: models.GraphNodeData{Label: "A"}},
		{ID: "n2", Type: models.GraphNodeStart, Data: models.GraphNodeData{Label: "B"}},
	}

	_, err := Linearize(nodes, nil)
	assert.ErrorIs(t, err, ErrMultipleStarts)
}

func TestLinearize_BranchingGraph(t *testing.T) {
	nodes, edges := fourStepGraph()
	edges = append(edges, models.GraphEdge{ID: "e4", Source: "n1", Target: "n3"})

	_, err := Linearize(nodes, edges)
	assert.ErrorIs(t, err, ErrBranchingGraph)
}

func TestLinearize_CyclicGraph(t *testing.T) {
	nodes := []models.GraphNode{
		{ID: "n1", Type: models.GraphNodeStart, Data: models.GraphNodeData{Label: "Start"}},
		{ID: "n2", Type: models.GraphNodeApproval, Data: models.GraphNodeData{Label: "A"}},
		{ID: "n3", Type: models.GraphNodeApproval, Data: models.GraphNodeData{Label: "B"}},
	}
	edges := []models.GraphEdge{
		{ID: "e1", Source: "n1", Target: "n2"},
		{ID: "e2", Source: "n2", Target: "n3"},
		{ID: "e3", Source: "n3", Target: "n2"},
	}

	_, err := Linearize(nodes, edges)
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestLinearize_DisconnectedGraph(t *testing.T) {
	nodes, edges := fourStepGraph()
	nodes = append(nodes, models.GraphNode{
		ID:   "n5",
		Type: models.GraphNodeApproval,
		Data: models.GraphNodeData{Label: "Orphan"},
	})

	_, err := Linearize(nodes, edges)
	assert.ErrorIs(t, err, ErrDisconnectedGraph)
}

func TestLinearize_UnknownEdgeEndpoint(t *testing.T) {
	nodes, edges := fourStepGraph()
	edges[1].Target = "ghost"

	_, err := Linearize(nodes, edges)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestLinearize_UnknownNodeKindPassesThrough(t *testing.T) {
	nodes := []models.GraphNode{
		{ID: "n1", Type: models.GraphNodeStart, Data: models.GraphNodeData{Label: "Start"}},
		{ID: "n2", Type: "experimentalNode", Data: models.GraphNodeData{Label: "Mystery"}},
	}
	edges := []models.GraphEdge{
		{ID: "e1", Source: "n1", Target: "n2"},
	}

	steps, err := Linearize(nodes, edges)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, models.StepType("experimentalNode"), steps[1].Type)
	assert.False(t, steps[1].Type.Known())
}
