package web

import "github.com/landdiv/landflow/pkg/models"

// SubmitApprovalRequest is the decision payload accepted from the UI and
// from the email-parsing relay. Validation failures reject the request
// before any store access.
type SubmitApprovalRequest struct {
	ApplicationID string         `json:"applicationId" validate:"required"`
	ApproverEmail string         `json:"approverEmail" validate:"required"`
	Action        string         `json:"action"        validate:"required,oneof=approve reject"`
	Comments      string         `json:"comments"`
	EmailMetadata map[string]any `json:"emailMetadata"`
}

// CreateApplicationRequest creates an application either from a stored
// workflow template or from an inline step list.
type CreateApplicationRequest struct {
	TemplateID      string                `json:"templateId"`
	Workflow        []models.WorkflowStep `json:"workflow"`
	ApplicationData map[string]any        `json:"applicationData"`
}

// ValidateAddressRequest carries the outcome of an external address
// validation back into a waiting application.
type ValidateAddressRequest struct {
	Result map[string]any `json:"result"`
}

// CreateWorkflowTemplateRequest is an authored designer graph.
type CreateWorkflowTemplateRequest struct {
	Name  string             `json:"name"  validate:"required"`
	Nodes []models.GraphNode `json:"nodes" validate:"required,min=1,dive"`
	Edges []models.GraphEdge `json:"edges" validate:"dive"`
}

// UpdateWorkflowTemplateRequest replaces a stored template's graph.
type UpdateWorkflowTemplateRequest struct {
	Name  string             `json:"name"  validate:"required"`
	Nodes []models.GraphNode `json:"nodes" validate:"required,min=1,dive"`
	Edges []models.GraphEdge `json:"edges" validate:"dive"`
}
