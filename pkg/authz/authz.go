// Package authz decides who may do what: coarse role-based capabilities for
// the UI surface, and per-step approver checks for workflow decisions.
package authz

import (
	"github.com/landdiv/landflow/pkg/models"
)

type Role string

const (
	RoleUser                 Role = "user"
	RoleTownship             Role = "township"
	RoleAdmin                Role = "admin"
	RoleAddressAdministrator Role = "address_administrator"
)

type Capability string

const (
	CapViewDashboard       Capability = "view-dashboard"
	CapViewParcelViewer    Capability = "view-parcel-viewer"
	CapViewApplications    Capability = "view-applications"
	CapCreateApplications  Capability = "create-applications"
	CapManageWorkflows     Capability = "manage-workflows"
	CapApproveApplications Capability = "approve-applications"
	CapManageUsers         Capability = "manage-users"
)

// Identity is the authenticated caller as seen by the policy.
type Identity struct {
	Email string
	Role  Role
}

// Policy answers authorization questions. CanActOnStep gates workflow
// decisions on a specific step; CanPerformUIAction gates coarse role
// capabilities.
type Policy interface {
	CanPerformUIAction(role Role, capability Capability) bool
	CanActOnStep(identity Identity, step models.WorkflowStep) bool
}

// TablePolicy is the static role table used in production. Step-level
// decisions require an exact, case-sensitive match against the step's
// designated approver; start steps are open to anyone.
type TablePolicy struct {
	capabilities map[Role]map[Capability]bool
}

func NewTablePolicy() *TablePolicy {
	return &TablePolicy{
		capabilities: map[Role]map[Capability]bool{
			RoleUser: {
				CapViewDashboard:      true,
				CapViewParcelViewer:   true,
				CapViewApplications:   true,
				CapCreateApplications: true,
			},
			RoleTownship: {
				CapViewDashboard:       true,
				CapViewParcelViewer:    true,
				CapViewApplications:    true,
				CapManageWorkflows:     true,
				CapApproveApplications: true,
			},
			RoleAdmin: {
				CapViewDashboard:       true,
				CapViewParcelViewer:    true,
				CapViewApplications:    true,
				CapCreateApplications:  true,
				CapManageWorkflows:     true,
				CapApproveApplications: true,
				CapManageUsers:         true,
			},
			RoleAddressAdministrator: {
				CapViewDashboard:       true,
				CapViewParcelViewer:    true,
				CapViewApplications:    true,
				CapManageWorkflows:     true,
				CapApproveApplications: true,
			},
		},
	}
}

func (p *TablePolicy) CanPerformUIAction(role Role, capability Capability) bool {
	caps, ok := p.capabilities[role]
	if !ok {
		return false
	}

	return caps[capability]
}

func (p *TablePolicy) CanActOnStep(identity Identity, step models.WorkflowStep) bool {
	if step.Type == models.StepTypeStart {
		return true
	}

	return step.ApproverEmail != "" && identity.Email == step.ApproverEmail
}
