package domain

import (
	"github.com/fundwit/go-commons/types"
)

// Project is the anchor record of the progress engine. The four progress
// columns are derived values: only the workflow package writes them.
type Project struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Code string `json:"code" gorm:"unique_index:code_unique"`
	Name string `json:"name"`

	ImplementingOfficeID types.ID `json:"implementingOfficeId"`
	FieldUnitID          types.ID `json:"fieldUnitId"`

	WorkflowStatus WorkflowStatus `json:"workflowStatus"`

	OverallProgress  float64 `json:"overallProgress" sql:"type:DECIMAL(5,2)"`
	TimelineProgress float64 `json:"timelineProgress" sql:"type:DECIMAL(5,2)"`
	BudgetProgress   float64 `json:"budgetProgress" sql:"type:DECIMAL(5,2)"`
	PhysicalProgress float64 `json:"physicalProgress" sql:"type:DECIMAL(5,2)"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	Creator    types.ID        `json:"creator"`
}

type ProjectCreating struct {
	Code string `json:"code" binding:"required,lte=20,uppercase"`
	Name string `json:"name" binding:"required,lte=120"`

	ImplementingOfficeID types.ID `json:"implementingOfficeId" binding:"required"`
	FieldUnitID          types.ID `json:"fieldUnitId" binding:"required"`
}

type ProjectUpdating struct {
	Name string `json:"name" binding:"required,lte=120"`
}

type ProjectRole struct {
	ProjectID types.ID `json:"projectId"`
	Role      string   `json:"role"`
}

const (
	ProjectRoleImplementingOffice = "implementing_office"
	ProjectRoleFieldUnit          = "field_unit"
)
