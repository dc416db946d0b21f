package bizerror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fundwit/go-commons/types"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")

	ErrConcurrentSubmissionExists = errors.New("concurrent submission exists")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message}
}

// ErrInvalidWeightDistribution is raised when a milestone set's weights do
// not sum to 100 within tolerance.
type ErrInvalidWeightDistribution struct {
	Sum float64
}

func (e *ErrInvalidWeightDistribution) Error() string {
	return fmt.Sprintf("milestone weights sum to %.2f%%, must equal 100%%", e.Sum)
}
func (e *ErrInvalidWeightDistribution) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "milestone.invalid_weight_distribution",
		Message: e.Error(), Data: e.Sum}
}

type ErrDuplicateOrder struct {
	Order int
}

func (e *ErrDuplicateOrder) Error() string {
	return fmt.Sprintf("duplicated milestone order index %d", e.Order)
}
func (e *ErrDuplicateOrder) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "milestone.duplicate_order",
		Message: e.Error(), Data: e.Order}
}

type ErrUnknownMilestone struct {
	MilestoneID types.ID
}

func (e *ErrUnknownMilestone) Error() string {
	return "unknown milestone " + e.MilestoneID.String()
}
func (e *ErrUnknownMilestone) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "milestone.unknown_milestone",
		Message: e.Error(), Data: e.MilestoneID.String()}
}

type ErrInvalidProgress struct {
	Progress float64
	Status   string
}

func (e *ErrInvalidProgress) Error() string {
	return fmt.Sprintf("progress %.2f is not valid for milestone status '%s'", e.Progress, e.Status)
}
func (e *ErrInvalidProgress) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "milestone.invalid_progress",
		Message: e.Error()}
}

// ErrRegressiveDelta is raised when a reported delta would shrink a
// milestone's already-committed contribution to the project's progress.
type ErrRegressiveDelta struct {
	MilestoneID types.ID
	Committed   float64
	Reported    float64
}

func (e *ErrRegressiveDelta) Error() string {
	return fmt.Sprintf("milestone %s reported contribution %.2f is below the committed %.2f",
		e.MilestoneID.String(), e.Reported, e.Committed)
}
func (e *ErrRegressiveDelta) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "milestone.regressive_delta",
		Message: e.Error(), Data: e.MilestoneID.String()}
}

type ErrInvalidTransition struct {
	From    string
	Trigger string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("transition '%s' is not acceptable in status '%s'", e.Trigger, e.From)
}
func (e *ErrInvalidTransition) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusConflict, Code: "workflow.invalid_transition",
		Message: e.Error()}
}
