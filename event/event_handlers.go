package event

import (
	"github.com/sirupsen/logrus"
)

/*
return nil if not support
*/
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

// invokeHandlers runs the registered handlers after the owning transaction
// has committed. Handler failures are reported in the results and logged,
// never propagated: a failed notification or index update must not block or
// roll back the workflow transition that produced the event.
func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	for _, handler := range EventHandlers {
		logrus.Debug("pre handle event ", record.Event)
		r := handler(record)

		if r == nil {
			continue
		}

		results = append(results, *r)

		if r.Success {
			logrus.Info("post handle event. ", r)
		} else {
			logrus.Error("post handler error. ", r)
		}
	}
	return results
}
