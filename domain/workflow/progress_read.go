package workflow

import (
	"bantay/bizerror"
	"bantay/domain"
	"bantay/domain/ledger"
	"bantay/domain/progress"
	"bantay/persistence"
	"bantay/session"
	"math"

	"github.com/fundwit/go-commons/types"
)

var (
	GetProjectProgressFunc = GetProjectProgress
	ReconcileProgressFunc  = ReconcileProgress
)

type ProgressBrief struct {
	ProjectID      types.ID              `json:"projectId"`
	WorkflowStatus domain.WorkflowStatus `json:"workflowStatus"`

	progress.Figures
}

// ReconcileReport compares the committed progress figures against a fresh
// recomputation from the milestone ledger. Nonzero drift means the stored
// figures were written outside the engine.
type ReconcileReport struct {
	ProjectID types.ID         `json:"projectId"`
	Recorded  progress.Figures `json:"recorded"`
	Computed  progress.Figures `json:"computed"`
	Drift     float64          `json:"drift"`
}

// GetProjectProgress reads the committed figures. No recomputation happens
// here: two calls without an intervening mutation return identical values.
func GetProjectProgress(projectId types.ID, s *session.Session) (*ProgressBrief, error) {
	if !s.Perms.HasProjectViewPerm(projectId) {
		return nil, bizerror.ErrForbidden
	}
	project := domain.Project{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&domain.Project{ID: projectId}).First(&project).Error; err != nil {
		return nil, err
	}
	return &ProgressBrief{
		ProjectID:      project.ID,
		WorkflowStatus: project.WorkflowStatus,
		Figures: progress.Figures{
			Overall:  project.OverallProgress,
			Timeline: project.TimelineProgress,
			Budget:   project.BudgetProgress,
			Physical: project.PhysicalProgress,
		},
	}, nil
}

// ReconcileProgress recomputes the expected figures from milestone state via
// the pure aggregator, without mutating anything. It replaces the ad hoc
// repair scripts of the predecessor system as the audit tool.
func ReconcileProgress(projectId types.ID, s *session.Session) (*ReconcileReport, error) {
	if !s.Perms.HasProjectViewPerm(projectId) {
		return nil, bizerror.ErrForbidden
	}
	project := domain.Project{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&domain.Project{ID: projectId}).First(&project).Error; err != nil {
		return nil, err
	}
	milestones, err := ledger.LoadMilestones(db, projectId)
	if err != nil {
		return nil, err
	}

	recorded := progress.Figures{
		Overall:  project.OverallProgress,
		Timeline: project.TimelineProgress,
		Budget:   project.BudgetProgress,
		Physical: project.PhysicalProgress,
	}
	computed := progress.Aggregate(milestones)
	return &ReconcileReport{
		ProjectID: projectId,
		Recorded:  recorded,
		Computed:  computed,
		Drift:     math.Abs(recorded.Overall - computed.Overall),
	}, nil
}
