package workflow

import (
	"bantay/domain"
)

const (
	TriggerSubmit              = "submit"
	TriggerOfficeApprove       = "office_approve"
	TriggerOfficeReject        = "office_reject"
	TriggerSecretariatApprove  = "secretariat_approve"
	TriggerSecretariatValidate = "secretariat_validate"
	TriggerSecretariatReject   = "secretariat_reject"
	TriggerBegin               = "begin"
	TriggerComplete            = "complete"
)

type Transition struct {
	Trigger string                `json:"trigger"`
	From    domain.WorkflowStatus `json:"from"`
	To      domain.WorkflowStatus `json:"to"`
}

// stateless object, just used for state computing
type StateMachine struct {
	Transitions []Transition `json:"transitions"`
}

// ProjectStateMachine is the closed transition table of project workflow
// status. No code outside this package writes Project.WorkflowStatus.
var ProjectStateMachine = StateMachine{
	Transitions: []Transition{
		{Trigger: TriggerSubmit, From: domain.StatusDraft, To: domain.StatusSubmitted},
		{Trigger: TriggerSubmit, From: domain.StatusSubmitted, To: domain.StatusSubmitted},
		{Trigger: TriggerSubmit, From: domain.StatusOngoing, To: domain.StatusSubmitted},
		{Trigger: TriggerSubmit, From: domain.StatusValidatedBySecretariat, To: domain.StatusSubmitted},

		{Trigger: TriggerOfficeApprove, From: domain.StatusSubmitted, To: domain.StatusCompiledForSecretariat},
		{Trigger: TriggerOfficeReject, From: domain.StatusSubmitted, To: domain.StatusSubmitted},

		{Trigger: TriggerSecretariatApprove, From: domain.StatusCompiledForSecretariat, To: domain.StatusSecretariatApproved},
		{Trigger: TriggerSecretariatValidate, From: domain.StatusSecretariatApproved, To: domain.StatusValidatedBySecretariat},
		{Trigger: TriggerSecretariatReject, From: domain.StatusCompiledForSecretariat, To: domain.StatusSubmitted},

		{Trigger: TriggerBegin, From: domain.StatusValidatedBySecretariat, To: domain.StatusOngoing},
		{Trigger: TriggerComplete, From: domain.StatusValidatedBySecretariat, To: domain.StatusCompleted},
	},
}

func (sm *StateMachine) AvailableTransitions(from domain.WorkflowStatus, trigger string) []Transition {
	r := []Transition{}
	for _, transition := range sm.Transitions {
		if (from == "" || from == transition.From) && (trigger == "" || trigger == transition.Trigger) {
			r = append(r, transition)
		}
	}
	return r
}

// Accept resolves the single target status of a trigger from the given
// status, or reports that the transition is not acceptable.
func (sm *StateMachine) Accept(from domain.WorkflowStatus, trigger string) (domain.WorkflowStatus, bool) {
	transitions := sm.AvailableTransitions(from, trigger)
	if len(transitions) != 1 {
		return "", false
	}
	return transitions[0].To, true
}
