package notification

import (
	"context"

	"bantay/account"
	"bantay/domain"
	"bantay/event"
	"bantay/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

const (
	CategorySubmitted            = "submission.submitted"
	CategoryOfficeApproved       = "submission.office_approved"
	CategoryOfficeRejected       = "submission.office_rejected"
	CategorySecretariatRejected  = "submission.secretariat_rejected"
	CategorySecretariatValidated = "submission.secretariat_validated"
	CategoryProjectCompleted     = "project.completed"
)

// Intent is an addressed notice to the next responsible party of a workflow
// transition. The engine's obligation ends at producing a correct,
// deduplicated recipient set; message construction and delivery are the
// dispatcher implementation's concern.
type Intent struct {
	RecipientID types.ID `json:"recipientId"`
	Category    string   `json:"category"`

	ProjectID    types.ID `json:"projectId"`
	SubmissionID types.ID `json:"submissionId"`
}

type Dispatcher interface {
	Dispatch(intents []Intent) error
}

// LogDispatcher is the default delivery: it only logs the intents. Real
// transports replace ActiveDispatcher at bootstrap.
type LogDispatcher struct {
}

func (d *LogDispatcher) Dispatch(intents []Intent) error {
	for _, intent := range intents {
		logrus.WithFields(logrus.Fields{
			"recipientId":  intent.RecipientID,
			"category":     intent.Category,
			"projectId":    intent.ProjectID,
			"submissionId": intent.SubmissionID,
		}).Info("notification intent")
	}
	return nil
}

var ActiveDispatcher Dispatcher = &LogDispatcher{}

var categoryOfEvent = map[event.EventCategory]string{
	event.EventCategorySubmitted:            CategorySubmitted,
	event.EventCategoryOfficeApproved:       CategoryOfficeApproved,
	event.EventCategoryOfficeRejected:       CategoryOfficeRejected,
	event.EventCategorySecretariatRejected:  CategorySecretariatRejected,
	event.EventCategorySecretariatValidated: CategorySecretariatValidated,
	event.EventCategoryCompleted:            CategoryProjectCompleted,
}

// NotifyOnTransition translates a workflow transition event into notification
// intents. It is registered on the event handler chain and runs after the
// transition committed; failures are reported but never block the workflow.
func NotifyOnTransition(record *event.EventRecord) *event.EventHandleResult {
	category, supported := categoryOfEvent[record.EventCategory]
	if !supported {
		return nil
	}

	projectId, submissionId, err := resolveSubject(record)
	if err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: "notification"}
	}
	recipients, err := ResolveRecipients(category, projectId)
	if err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: "notification"}
	}

	intents := make([]Intent, 0, len(recipients))
	for _, recipient := range recipients {
		intents = append(intents, Intent{
			RecipientID: recipient, Category: category,
			ProjectID: projectId, SubmissionID: submissionId,
		})
	}
	if err := ActiveDispatcher.Dispatch(intents); err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: "notification"}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: "notification"}
}

// ResolveRecipients maps a workflow edge to its responsible parties:
// submission goes to the implementing office, compilation to the secretariat
// pool, any rejection back to the field unit, validation to the field unit,
// completion to everyone involved. The result is deduplicated.
func ResolveRecipients(category string, projectId types.ID) ([]types.ID, error) {
	recipients := []types.ID{}

	switch category {
	case CategorySubmitted:
		officer, err := account.ImplementingOfficerOfFunc(projectId)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, officer)
	case CategoryOfficeApproved:
		pool, err := account.SecretariatPoolFunc()
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, pool...)
	case CategoryOfficeRejected, CategorySecretariatRejected, CategorySecretariatValidated:
		fieldUnit, err := account.FieldUnitOfFunc(projectId)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, fieldUnit)
	case CategoryProjectCompleted:
		fieldUnit, err := account.FieldUnitOfFunc(projectId)
		if err != nil {
			return nil, err
		}
		officer, err := account.ImplementingOfficerOfFunc(projectId)
		if err != nil {
			return nil, err
		}
		pool, err := account.SecretariatPoolFunc()
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, fieldUnit, officer)
		recipients = append(recipients, pool...)
	}

	return dedup(recipients), nil
}

func resolveSubject(record *event.EventRecord) (projectId, submissionId types.ID, err error) {
	switch record.SourceType {
	case event.SourceTypeProject:
		return record.SourceId, 0, nil
	case event.SourceTypeSubmission:
		submission := domain.SubmissionRecord{}
		db := persistence.ActiveDataSourceManager.GormDB(context.Background())
		if err := db.Where(&domain.SubmissionRecord{ID: record.SourceId}).First(&submission).Error; err != nil {
			return 0, 0, err
		}
		return submission.ProjectID, submission.ID, nil
	}
	return 0, 0, nil
}

func dedup(ids []types.ID) []types.ID {
	seen := map[types.ID]bool{}
	result := make([]types.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
