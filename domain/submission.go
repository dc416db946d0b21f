package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

type SubmissionStatus string

const (
	SubmissionSubmitted                  SubmissionStatus = "submitted"
	SubmissionImplementingOfficeApproved SubmissionStatus = "implementing_office_approved"
	SubmissionSecretariatValidated       SubmissionStatus = "secretariat_validated"
	SubmissionRejected                   SubmissionStatus = "rejected"
)

type Division string

const (
	DivisionTimeline Division = "timeline"
	DivisionBudget   Division = "budget"
	DivisionPhysical Division = "physical"
)

var Divisions = []Division{DivisionTimeline, DivisionBudget, DivisionPhysical}

type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

// MilestoneSnapshot captures one milestone's proposed state at submission
// time. A submission always snapshots the full milestone set.
type MilestoneSnapshot struct {
	MilestoneID types.ID        `json:"milestoneId"`
	Weight      float64         `json:"weight"`
	Status      MilestoneStatus `json:"status"`
	Progress    float64         `json:"progress"`
}

type MilestoneSnapshots []MilestoneSnapshot

type DivisionVerdicts map[Division]Verdict

// SubmissionRecord is a field-reported update claim, immutable once it has
// passed secretariat validation.
type SubmissionRecord struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId" gorm:"index:idx_submission_project" sql:"type:BIGINT UNSIGNED NOT NULL"`

	SubmitterID   types.ID `json:"submitterId"`
	SubmitterRole string   `json:"submitterRole"`

	MilestoneSnapshot MilestoneSnapshots `json:"milestoneSnapshot" sql:"type:TEXT"`

	ClaimedProgress  float64 `json:"claimedProgress" sql:"type:DECIMAL(5,2)"`
	AdjustedProgress float64 `json:"adjustedProgress" sql:"type:DECIMAL(5,2)"`
	FinalProgress    float64 `json:"finalProgress" sql:"type:DECIMAL(5,2)"`

	Status   SubmissionStatus `json:"status"`
	Verdicts DivisionVerdicts `json:"verdicts" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	ReviewTime types.Timestamp `json:"reviewTime" sql:"type:DATETIME(6)"`
}

func (r *SubmissionRecord) TableName() string {
	return "submission_records"
}

func (t MilestoneSnapshots) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (t *MilestoneSnapshots) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), t)
}

func (t DivisionVerdicts) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (t *DivisionVerdicts) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), t)
}

// Rejected reports whether any division verdict is a rejection.
func (t DivisionVerdicts) Rejected() bool {
	for _, v := range t {
		if v == VerdictRejected {
			return true
		}
	}
	return false
}
