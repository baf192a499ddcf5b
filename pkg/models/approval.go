package models

import "time"

// ApprovalAction is the closed set of decisions an approver can submit.
// Anything else is rejected at the intake boundary before any store access.
type ApprovalAction string

const (
	ActionApprove ApprovalAction = "approve"
	ActionReject  ApprovalAction = "reject"
)

// Valid reports whether the action is one of the two accepted decisions.
func (a ApprovalAction) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// Approval sources recorded on intake.
const (
	ApprovalSourceUI    = "ui"
	ApprovalSourceEmail = "email"
)

// ApprovalRecord is an immutable decision document submitted against a
// pending approval step. It is created once by the intake handler and
// consumed exactly once by the advancement engine; it is never updated.
type ApprovalRecord struct {
	ID            string         `json:"id,omitempty"`
	ApplicationID string         `json:"applicationId" validate:"required"`
	Action        ApprovalAction `json:"action"        validate:"required,oneof=approve reject"`
	ApproverEmail string         `json:"approverEmail" validate:"required"`
	Comments      string         `json:"comments,omitempty"`
	Source        string         `json:"source,omitempty"`
	EmailMetadata map[string]any `json:"emailMetadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}
