package workflow_test

import (
	"testing"

	"bantay/domain"
	"bantay/domain/workflow"

	. "github.com/onsi/gomega"
)

func TestProjectStateMachineAccept(t *testing.T) {
	RegisterTestingT(t)

	sm := workflow.ProjectStateMachine

	t.Run("should accept the review chain in order", func(t *testing.T) {
		to, ok := sm.Accept(domain.StatusDraft, workflow.TriggerSubmit)
		Expect(ok).To(BeTrue())
		Expect(to).To(Equal(domain.StatusSubmitted))

		to, ok = sm.Accept(domain.StatusSubmitted, workflow.TriggerOfficeApprove)
		Expect(ok).To(BeTrue())
		Expect(to).To(Equal(domain.StatusCompiledForSecretariat))

		to, ok = sm.Accept(domain.StatusCompiledForSecretariat, workflow.TriggerSecretariatApprove)
		Expect(ok).To(BeTrue())
		Expect(to).To(Equal(domain.StatusSecretariatApproved))

		to, ok = sm.Accept(domain.StatusSecretariatApproved, workflow.TriggerSecretariatValidate)
		Expect(ok).To(BeTrue())
		Expect(to).To(Equal(domain.StatusValidatedBySecretariat))
	})

	t.Run("should allow resubmission after validation and from ongoing", func(t *testing.T) {
		for _, from := range []domain.WorkflowStatus{
			domain.StatusSubmitted, domain.StatusOngoing, domain.StatusValidatedBySecretariat,
		} {
			to, ok := sm.Accept(from, workflow.TriggerSubmit)
			Expect(ok).To(BeTrue())
			Expect(to).To(Equal(domain.StatusSubmitted))
		}
	})

	t.Run("should return a submitted project to submitted on rejection", func(t *testing.T) {
		to, ok := sm.Accept(domain.StatusSubmitted, workflow.TriggerOfficeReject)
		Expect(ok).To(BeTrue())
		Expect(to).To(Equal(domain.StatusSubmitted))

		to, ok = sm.Accept(domain.StatusCompiledForSecretariat, workflow.TriggerSecretariatReject)
		Expect(ok).To(BeTrue())
		Expect(to).To(Equal(domain.StatusSubmitted))
	})

	t.Run("should advance a validated project to ongoing or completed only", func(t *testing.T) {
		to, ok := sm.Accept(domain.StatusValidatedBySecretariat, workflow.TriggerBegin)
		Expect(ok).To(BeTrue())
		Expect(to).To(Equal(domain.StatusOngoing))

		to, ok = sm.Accept(domain.StatusValidatedBySecretariat, workflow.TriggerComplete)
		Expect(ok).To(BeTrue())
		Expect(to).To(Equal(domain.StatusCompleted))
	})

	t.Run("should reject transitions outside the table", func(t *testing.T) {
		_, ok := sm.Accept(domain.StatusDraft, workflow.TriggerOfficeApprove)
		Expect(ok).To(BeFalse())

		_, ok = sm.Accept(domain.StatusCompleted, workflow.TriggerSubmit)
		Expect(ok).To(BeFalse())

		_, ok = sm.Accept(domain.StatusCompiledForSecretariat, workflow.TriggerSubmit)
		Expect(ok).To(BeFalse())

		_, ok = sm.Accept(domain.StatusSubmitted, "no_such_trigger")
		Expect(ok).To(BeFalse())
	})
}

func TestAvailableTransitions(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should filter by from status and trigger independently", func(t *testing.T) {
		sm := workflow.ProjectStateMachine

		fromValidated := sm.AvailableTransitions(domain.StatusValidatedBySecretariat, "")
		Expect(len(fromValidated)).To(Equal(3))

		submits := sm.AvailableTransitions("", workflow.TriggerSubmit)
		Expect(len(submits)).To(Equal(4))

		Expect(sm.AvailableTransitions(domain.StatusCompleted, "")).To(BeEmpty())
	})
}
