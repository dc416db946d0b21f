package domain

import (
	"github.com/fundwit/go-commons/types"
)

type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// Milestone is a weighted portion of a project's deliverables. Weight, title,
// budget and due date are edit-time attributes; status and progress are only
// mutated when an approved submission is applied.
type Milestone struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId" gorm:"index:idx_milestone_project" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Title  string  `json:"title"`
	Weight float64 `json:"weight" sql:"type:DECIMAL(5,2)"`

	Status   MilestoneStatus `json:"status"`
	Progress float64         `json:"progress" sql:"type:DECIMAL(5,2)"`

	OrderIndex    int             `json:"orderIndex"`
	PlannedBudget float64         `json:"plannedBudget" sql:"type:DECIMAL(14,2)"`
	DueDate       types.Timestamp `json:"dueDate" sql:"type:DATETIME(6)"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

// MilestoneDefinition is the edit-time input of a single milestone.
type MilestoneDefinition struct {
	Title  string  `json:"title" binding:"required,lte=200"`
	Weight float64 `json:"weight" binding:"required,gt=0,lte=100"`

	OrderIndex    int             `json:"orderIndex" binding:"required,gt=0"`
	PlannedBudget float64         `json:"plannedBudget" binding:"gte=0"`
	DueDate       types.Timestamp `json:"dueDate"`
}

// MilestoneDelta is one field-reported change of a milestone's state.
type MilestoneDelta struct {
	MilestoneID types.ID        `json:"milestoneId" binding:"required"`
	Status      MilestoneStatus `json:"status" binding:"required,oneof=pending in_progress completed"`
	Progress    float64         `json:"progress" binding:"gte=0,lte=100"`
}
