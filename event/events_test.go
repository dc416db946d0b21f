package event_test

import (
	"errors"
	"testing"

	"bantay/event"
	"bantay/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func TestCreateEvent(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should build and persist the event record in the caller's transaction", func(t *testing.T) {
		var persisted *event.EventRecord
		persistBackup := event.EventPersistCreateFunc
		event.EventPersistCreateFunc = func(record *event.EventRecord, tx *gorm.DB) error {
			persisted = record
			return nil
		}
		defer func() { event.EventPersistCreateFunc = persistBackup }()

		record, err := event.CreateEvent(event.SourceTypeSubmission, 200, "PRJ-100",
			event.EventCategorySubmitted,
			[]event.UpdatedProperty{{PropertyName: "workflowStatus", OldValue: "draft", NewValue: "submitted"}},
			&session.Identity{ID: 20, Name: "field unit"}, nil)
		Expect(err).To(BeNil())
		Expect(record).To(Equal(persisted))

		Expect(record.SourceType).To(Equal(event.SourceTypeSubmission))
		Expect(record.SourceId).To(Equal(types.ID(200)))
		Expect(record.SourceDesc).To(Equal("PRJ-100"))
		Expect(record.EventCategory).To(Equal(event.EventCategory(event.EventCategorySubmitted)))
		Expect(record.CreatorId.String()).To(Equal("20"))
		Expect(record.CreatorName).To(Equal("field unit"))
		Expect(record.Synced).To(BeFalse())
		Expect(record.Timestamp).ToNot(BeZero())
		Expect(record.UpdatedProperties[0].NewValue).To(Equal("submitted"))
	})

	t.Run("should propagate persistence failures", func(t *testing.T) {
		persistBackup := event.EventPersistCreateFunc
		event.EventPersistCreateFunc = func(record *event.EventRecord, tx *gorm.DB) error {
			return errors.New("a persist error")
		}
		defer func() { event.EventPersistCreateFunc = persistBackup }()

		record, err := event.CreateEvent(event.SourceTypeProject, 100, "PRJ-100",
			event.EventCategoryCompleted, nil, &session.Identity{ID: 1}, nil)
		Expect(record).To(BeNil())
		Expect(err).To(Equal(errors.New("a persist error")))
	})
}

func TestInvokeHandlers(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should collect results and keep going past failing handlers", func(t *testing.T) {
		handlersBackup := event.EventHandlers
		event.EventHandlers = []event.EventHandler{
			func(e *event.EventRecord) *event.EventHandleResult {
				return nil
			},
			func(e *event.EventRecord) *event.EventHandleResult {
				return &event.EventHandleResult{Success: false, Message: "broken", HandlerIdentifier: "first"}
			},
			func(e *event.EventRecord) *event.EventHandleResult {
				return &event.EventHandleResult{Success: true, HandlerIdentifier: "second"}
			},
		}
		defer func() { event.EventHandlers = handlersBackup }()

		results := event.InvokeHandlersFunc(&event.EventRecord{})
		Expect(results).To(Equal([]event.EventHandleResult{
			{Success: false, Message: "broken", HandlerIdentifier: "first"},
			{Success: true, HandlerIdentifier: "second"},
		}))
	})

	t.Run("should return an empty result set without handlers", func(t *testing.T) {
		handlersBackup := event.EventHandlers
		event.EventHandlers = nil
		defer func() { event.EventHandlers = handlersBackup }()

		Expect(event.InvokeHandlersFunc(&event.EventRecord{})).To(BeEmpty())
	})
}
