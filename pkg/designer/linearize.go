// Package designer manages authored workflow templates: validating the
// graphs the visual editor emits and linearizing them into the step lists
// embedded in application records.
package designer

import (
	"errors"
	"fmt"

	"github.com/landdiv/landflow/pkg/models"
)

var (
	ErrNoStartNode       = errors.New("workflow graph has no start node")
	ErrMultipleStarts    = errors.New("workflow graph has more than one start node")
	ErrBranchingGraph    = errors.New("workflow graph branches; workflows must be a single path")
	ErrCyclicGraph       = errors.New("workflow graph contains a cycle")
	ErrDisconnectedGraph = errors.New("workflow graph has nodes unreachable from the start node")
)

// stepTypes maps editor node kinds onto engine step types.
var stepTypes = map[string]models.StepType{
	models.GraphNodeStart:    models.StepTypeStart,
	models.GraphNodeApproval: models.StepTypeApproval,
	models.GraphNodeAddress:  models.StepTypeAddress,
	models.GraphNodeEnd:      models.StepTypeEnd,
}

// Linearize flattens an authored graph into the ordered step list the engine
// runs. The graph must be a single path: one start node, at most one
// outgoing edge per node, no cycles, and every node reachable from the start.
func Linearize(nodes []models.GraphNode, edges []models.GraphEdge) ([]models.WorkflowStep, error) {
	byID := make(map[string]models.GraphNode, len(nodes))
	next := make(map[string]string, len(edges))

	for _, node := range nodes {
		byID[node.ID] = node
	}

	for _, edge := range edges {
		if _, ok := byID[edge.Source]; !ok {
			return nil, fmt.Errorf("edge %s references unknown source node %s", edge.ID, edge.Source)
		}

		if _, ok := byID[edge.Target]; !ok {
			return nil, fmt.Errorf("edge %s references unknown target node %s", edge.ID, edge.Target)
		}

		if _, dup := next[edge.Source]; dup {
			return nil, ErrBranchingGraph
		}

		next[edge.Source] = edge.Target
	}

	start := ""

	for _, node := range nodes {
		if node.Type == models.GraphNodeStart {
			if start != "" {
				return nil, ErrMultipleStarts
			}

			start = node.ID
		}
	}

	if start == "" {
		return nil, ErrNoStartNode
	}

	steps := make([]models.WorkflowStep, 0, len(nodes))
	visited := make(map[string]bool, len(nodes))

	for id := start; id != ""; id = next[id] {
		if visited[id] {
			return nil, ErrCyclicGraph
		}

		visited[id] = true
		steps = append(steps, toStep(byID[id]))
	}

	if len(steps) != len(nodes) {
		return nil, ErrDisconnectedGraph
	}

	return steps, nil
}

func toStep(node models.GraphNode) models.WorkflowStep {
	stepType, ok := stepTypes[node.Type]
	if !ok {
		// Unknown editor kinds pass through; the engine treats them as
		// unrecognized and stalls rather than erroring.
		stepType = models.StepType(node.Type)
	}

	return models.WorkflowStep{
		Node:          node.Data.Label,
		Type:          stepType,
		ApproverEmail: node.Data.Email,
		Requirements:  node.Data.Requirements,
	}
}
