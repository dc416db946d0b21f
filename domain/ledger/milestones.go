package ledger

import (
	"math"

	"bantay/authority"
	"bantay/bizerror"
	"bantay/domain"
	"bantay/domain/progress"
	"bantay/idgen"
	"bantay/persistence"
	"bantay/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// WeightTolerance is the accepted rounding slack on the weight-sum invariant.
// A set summing to 100.01 passes, 100.02 does not.
const WeightTolerance = 0.01

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	SetMilestonesFunc = SetMilestones
	GetMilestonesFunc = GetMilestones
)

// CheckWeights validates the weight-sum invariant over a prospective
// milestone set. Every path that stores milestones goes through this gate.
func CheckWeights(weights []float64) error {
	sum := float64(0)
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-100) > WeightTolerance {
		return &bizerror.ErrInvalidWeightDistribution{Sum: sum}
	}
	return nil
}

// SetMilestones replaces or initializes the milestone set of a project.
// Progress fields of the project are not touched here; they are recomputed
// by the workflow. Editing is rejected while a submission is in flight, so a
// submission always reviews against the set it snapshotted.
func SetMilestones(projectId types.ID, defs []domain.MilestoneDefinition, s *session.Session) ([]domain.Milestone, error) {
	if !s.Perms.HasRole(domain.ProjectRoleImplementingOffice+"_"+projectId.String()) &&
		!s.Perms.HasRole(authority.SystemAdminPermission) {
		return nil, bizerror.ErrForbidden
	}

	weights := make([]float64, 0, len(defs))
	orders := map[int]bool{}
	for _, d := range defs {
		weights = append(weights, d.Weight)
		if orders[d.OrderIndex] {
			return nil, &bizerror.ErrDuplicateOrder{Order: d.OrderIndex}
		}
		orders[d.OrderIndex] = true
	}
	if err := CheckWeights(weights); err != nil {
		return nil, err
	}

	now := types.CurrentTimestamp()
	milestones := make([]domain.Milestone, 0, len(defs))
	for _, d := range defs {
		milestones = append(milestones, domain.Milestone{
			ID:        idgen.NextID(idWorker),
			ProjectID: projectId,
			Title:     d.Title,
			Weight:    d.Weight,
			Status:    domain.MilestonePending,

			OrderIndex:    d.OrderIndex,
			PlannedBudget: d.PlannedBudget,
			DueDate:       d.DueDate,
			CreateTime:    now,
		})
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		project := domain.Project{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.Project{ID: projectId}).First(&project).Error; err != nil {
			return err
		}

		var inflight int
		if err := tx.Model(&domain.SubmissionRecord{}).
			Where("project_id = ? AND status IN (?)", projectId,
				[]domain.SubmissionStatus{domain.SubmissionSubmitted, domain.SubmissionImplementingOfficeApproved}).
			Count(&inflight).Error; err != nil {
			return err
		}
		if inflight > 0 {
			return bizerror.ErrConcurrentSubmissionExists
		}

		if err := tx.Delete(domain.Milestone{}, "project_id = ?", projectId).Error; err != nil {
			return err
		}
		for i := range milestones {
			if err := tx.Create(&milestones[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return milestones, nil
}

// UpdateMilestoneState applies one approved delta inside the caller's
// transaction. Only the workflow calls this, when a submission is approved.
func UpdateMilestoneState(tx *gorm.DB, projectId, milestoneId types.ID,
	status domain.MilestoneStatus, progress float64) error {

	if err := checkProgress(status, progress); err != nil {
		return err
	}

	query := tx.Model(&domain.Milestone{}).
		Where(&domain.Milestone{ID: milestoneId, ProjectID: projectId}).
		Update(map[string]interface{}{"status": status, "progress": progress})
	if err := query.Error; err != nil {
		return err
	}
	if query.RowsAffected != 1 {
		return &bizerror.ErrUnknownMilestone{MilestoneID: milestoneId}
	}
	return nil
}

// GetMilestones returns the project's milestone set in definition order.
func GetMilestones(projectId types.ID, s *session.Session) ([]domain.Milestone, error) {
	if !s.Perms.HasProjectViewPerm(projectId) {
		return nil, bizerror.ErrForbidden
	}
	var milestones []domain.Milestone
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(domain.Milestone{ProjectID: projectId}).
		Order("order_index ASC").Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

// LoadMilestones is the transaction-scoped read used by the workflow.
func LoadMilestones(tx *gorm.DB, projectId types.ID) ([]domain.Milestone, error) {
	var milestones []domain.Milestone
	if err := tx.Where(domain.Milestone{ProjectID: projectId}).
		Order("order_index ASC").Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

// checkProgress rejects progress values outside [0, 100] and nonzero
// progress on statuses where the sub-percentage is meaningless.
func checkProgress(status domain.MilestoneStatus, progress float64) error {
	if progress < 0 || progress > 100 {
		return &bizerror.ErrInvalidProgress{Progress: progress, Status: string(status)}
	}
	if progress != 0 && status != domain.MilestoneInProgress {
		return &bizerror.ErrInvalidProgress{Progress: progress, Status: string(status)}
	}
	return nil
}

// CheckDelta validates a reported delta against the persisted milestone set.
// A delta may never shrink a milestone's committed contribution: approving a
// submission must not move the project's committed progress backwards.
func CheckDelta(milestones []domain.Milestone, delta domain.MilestoneDelta) error {
	var milestone *domain.Milestone
	for i, m := range milestones {
		if m.ID == delta.MilestoneID {
			milestone = &milestones[i]
			break
		}
	}
	if milestone == nil {
		return &bizerror.ErrUnknownMilestone{MilestoneID: delta.MilestoneID}
	}
	if err := checkProgress(delta.Status, delta.Progress); err != nil {
		return err
	}

	committed := milestone.Weight * progress.AppliedFraction(milestone.Status, milestone.Progress)
	reported := milestone.Weight * progress.AppliedFraction(delta.Status, delta.Progress)
	if reported < committed {
		return &bizerror.ErrRegressiveDelta{MilestoneID: milestone.ID,
			Committed: committed, Reported: reported}
	}
	return nil
}
