// Package models defines the core domain models for land-division application workflows.
package models

// StepType tags a workflow step with its advancement behavior. The designer
// tool may emit labels outside this set; those steps are carried as-is and
// the engine treats them as unrecognized.
type StepType string

const (
	StepTypeStart    StepType = "start"    // Auto-advances on processing
	StepTypeApproval StepType = "approval" // Waits for an approval decision
	StepTypeAddress  StepType = "address"  // Waits for an external address validation
	StepTypeEnd      StepType = "end"      // Terminal
)

// Known reports whether the type is one of the closed tag set the engine
// understands.
func (t StepType) Known() bool {
	switch t {
	case StepTypeStart, StepTypeApproval, StepTypeAddress, StepTypeEnd:
		return true
	default:
		return false
	}
}

// WorkflowStep is one stage of an application's embedded workflow definition.
type WorkflowStep struct {
	Node          string   `json:"node"                    validate:"required"`
	Type          StepType `json:"type"                    validate:"required"`
	ApproverEmail string   `json:"approverEmail,omitempty"`
	Requirements  []string `json:"requirements,omitempty"`
}

// StatusForStep derives the human-readable status text for an application
// sitting at the given step. The status field is always derived, never
// authoritative on its own.
func StatusForStep(step WorkflowStep) string {
	switch step.Type {
	case StepTypeStart:
		return StatusPending
	case StepTypeApproval:
		return "Awaiting approval from " + step.Node
	case StepTypeAddress:
		return StatusPendingAddressValidation
	case StepTypeEnd:
		return StatusComplete
	default:
		return StatusPending
	}
}
