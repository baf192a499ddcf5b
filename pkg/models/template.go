package models

import "time"

// Designer node kinds as emitted by the graph editor. The editor's start
// node carries the builtin "input" kind; everything else is a custom kind.
const (
	GraphNodeStart    = "input"
	GraphNodeApproval = "approvalNode"
	GraphNodeAddress  = "addressNode"
	GraphNodeEnd      = "output"
)

// GraphNodeData is the editable payload attached to a designer node.
type GraphNodeData struct {
	Label        string   `json:"label"`
	Email        string   `json:"email,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// GraphNode is one node of an authored workflow graph.
type GraphNode struct {
	ID   string        `json:"id"   validate:"required"`
	Type string        `json:"type" validate:"required"`
	Data GraphNodeData `json:"data"`
}

// GraphEdge is a directed connection between two designer nodes.
type GraphEdge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// WorkflowTemplate is a saved designer graph. Templates are authoring-time
// artifacts: creating an application linearizes the graph and embeds the
// resulting step list, so later template edits never touch live applications.
type WorkflowTemplate struct {
	ID        string      `json:"id,omitempty"`
	Name      string      `json:"name"  validate:"required"`
	Nodes     []GraphNode `json:"nodes" validate:"required,min=1"`
	Edges     []GraphEdge `json:"edges"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
