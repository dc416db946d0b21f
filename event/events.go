package event

import (
	"bantay/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// CreateEvent persists a transition event record within the caller's
// transaction and returns it so callers can hand it to the handler chain
// after commit.
func CreateEvent(sourceType string, sourceId types.ID, sourceDesc string, category EventCategory,
	updatedProperties []UpdatedProperty, identity *session.Identity, tx *gorm.DB) (*EventRecord, error) {

	record := EventRecord{
		Event: Event{
			SourceType: sourceType,
			SourceId:   sourceId,
			SourceDesc: sourceDesc,

			EventCategory:     category,
			UpdatedProperties: updatedProperties,

			CreatorId:   identity.ID,
			CreatorName: identity.Name,
		},
		Synced:    false,
		Timestamp: types.CurrentTimestamp(),
	}
	if err := EventPersistCreateFunc(&record, tx); err != nil {
		return nil, err
	}
	return &record, nil
}
