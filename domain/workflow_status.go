package domain

// WorkflowStatus is a closed enum on Project. Values are only ever written
// through the workflow package's transition table.
type WorkflowStatus string

const (
	StatusDraft                  WorkflowStatus = "draft"
	StatusSubmitted              WorkflowStatus = "submitted"
	StatusCompiledForSecretariat WorkflowStatus = "compiled_for_secretariat"
	StatusSecretariatApproved    WorkflowStatus = "secretariat_approved"
	StatusValidatedBySecretariat WorkflowStatus = "validated_by_secretariat"
	StatusOngoing                WorkflowStatus = "ongoing"
	StatusCompleted              WorkflowStatus = "completed"
)

func (s WorkflowStatus) IsTerminal() bool {
	return s == StatusCompleted
}
