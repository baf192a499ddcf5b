package models

import "time"

// Status texts written by the engine and the approval intake. These mirror
// what the dashboard surfaces to applicants, so changing one is a UI-visible
// change.
const (
	StatusPending                  = "Pending"
	StatusSubmitted                = "Application Submitted"
	StatusPendingAddressValidation = "Pending Address Validation"
	StatusComplete                 = "Application Complete"
	StatusRejected                 = "Rejected"
	StatusProcessingError          = "Error processing workflow"
	StatusTooManyUpdates           = "ERROR: Too many updates per hour - possible infinite loop detected"
	StatusTotalUpdatesExceeded     = "ERROR: Maximum total updates exceeded"
)

// ErrorTypeSafetyLimit marks a RecordError written by the update-rate guard.
const ErrorTypeSafetyLimit = "SAFETY_LIMIT"

// HistoryStatusStarted is the status stamped on the audit entry appended
// whenever the engine begins processing a step.
const HistoryStatusStarted = "Started"

// HistoryEntry is one append-only audit line on an application. Entries are
// never edited or removed.
type HistoryEntry struct {
	Node      string    `json:"node"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status,omitempty"`
	Action    string    `json:"action,omitempty"`
	Approver  string    `json:"approver,omitempty"`
	Comments  string    `json:"comments,omitempty"`
}

// UpdateCounters tracks write frequency for the engine's circuit breaker.
type UpdateCounters struct {
	Total         int         `json:"total"`
	RecentUpdates []time.Time `json:"recentUpdates"`
	FirstUpdate   time.Time   `json:"firstUpdate"`
}

// RecordError is the error surface written onto an application when the
// guard trips or a transition fails.
type RecordError struct {
	Type      string    `json:"type,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ApplicationRecord is the per-applicant document tracking workflow progress.
// The workflow definition is embedded, not referenced, so each application is
// immune to later edits of a shared template.
//
// The engine owns CurrentNode, Status, History, Updates and Error. The
// ApplicationData, StepStatuses, Documents and ParcelInfo payloads belong to
// the front end and pass through untouched.
type ApplicationRecord struct {
	ID          string         `json:"id,omitempty"`
	Workflow    []WorkflowStep `json:"workflow"    validate:"required,min=1"`
	CurrentNode int            `json:"currentNode"`
	Status      string         `json:"status"`
	History     []HistoryEntry `json:"history"`

	Updates *UpdateCounters `json:"updates,omitempty"`
	Error   *RecordError    `json:"error,omitempty"`

	ApplicationData map[string]any   `json:"applicationData,omitempty"`
	StepStatuses    map[string]any   `json:"stepStatuses,omitempty"`
	Documents       []map[string]any `json:"documents,omitempty"`
	ParcelInfo      map[string]any   `json:"parcelInfo,omitempty"`

	LastUpdated     *time.Time `json:"lastUpdated,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// CurrentStep returns the step CurrentNode points at, or false when the
// workflow is empty or the index is out of range.
func (a *ApplicationRecord) CurrentStep() (WorkflowStep, bool) {
	if a.CurrentNode < 0 || a.CurrentNode >= len(a.Workflow) {
		return WorkflowStep{}, false
	}

	return a.Workflow[a.CurrentNode], true
}

// AtLastStep reports whether CurrentNode points at the final step of the
// embedded workflow.
func (a *ApplicationRecord) AtLastStep() bool {
	return len(a.Workflow) > 0 && a.CurrentNode == len(a.Workflow)-1
}

// NewApplicationRecord builds a fresh record at the head of the given
// workflow, the shape the wizard writes on submission.
func NewApplicationRecord(workflow []WorkflowStep, applicationData map[string]any) *ApplicationRecord {
	return &ApplicationRecord{
		Workflow:        workflow,
		CurrentNode:     0,
		Status:          StatusPending,
		History:         []HistoryEntry{},
		ApplicationData: applicationData,
		CreatedAt:       time.Now().UTC(),
	}
}
