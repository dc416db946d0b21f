package workflow

import (
	"bantay/authority"
	"bantay/bizerror"
	"bantay/domain"
	"bantay/domain/ledger"
	"bantay/domain/progress"
	"bantay/event"
	"bantay/idgen"
	"bantay/persistence"
	"bantay/session"
	"strconv"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	SubmitUpdateFunc               = SubmitUpdate
	ReviewAsImplementingOfficeFunc = ReviewAsImplementingOffice
	ReviewAsSecretariatFunc        = ReviewAsSecretariat
	QuerySubmissionsFunc           = QuerySubmissions
)

// SubmitUpdate records a field report against the project's current
// milestone set. The validate-snapshot-transition sequence runs under a
// per-project exclusive row lock; a second in-flight submission for the same
// project is rejected, not queued.
func SubmitUpdate(projectId types.ID, deltas []domain.MilestoneDelta, s *session.Session) (*domain.SubmissionRecord, error) {
	if !s.Perms.HasRole(domain.ProjectRoleFieldUnit + "_" + projectId.String()) {
		return nil, bizerror.ErrForbidden
	}
	if len(deltas) == 0 {
		return nil, &bizerror.ErrBadParam{}
	}

	record := &domain.SubmissionRecord{
		ID:        idgen.NextID(idWorker),
		ProjectID: projectId,

		SubmitterID:   s.Identity.ID,
		SubmitterRole: domain.ProjectRoleFieldUnit,

		Status:     domain.SubmissionSubmitted,
		CreateTime: types.CurrentTimestamp(),
	}

	var transitionEvent *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		project := domain.Project{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.Project{ID: projectId}).First(&project).Error; err != nil {
			return err
		}

		to, ok := ProjectStateMachine.Accept(project.WorkflowStatus, TriggerSubmit)
		if !ok {
			return &bizerror.ErrInvalidTransition{From: string(project.WorkflowStatus), Trigger: TriggerSubmit}
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

		milestones, err := ledger.LoadMilestones(tx, projectId)
		if err != nil {
			return err
		}
		weights := make([]float64, 0, len(milestones))
		for _, m := range milestones {
			weights = append(weights, m.Weight)
		}
		if err := ledger.CheckWeights(weights); err != nil {
			return err
		}

		for _, delta := range deltas {
			if err := ledger.CheckDelta(milestones, delta); err != nil {
				return err
			}
		}
		record.MilestoneSnapshot = buildSnapshot(milestones, deltas)
		record.ClaimedProgress = progress.AggregateSnapshots(record.MilestoneSnapshot).Overall

		if err := tx.Create(record).Error; err != nil {
			return err
		}

		oldStatus := project.WorkflowStatus
		if err := transitionProject(tx, &project, to); err != nil {
			return err
		}

		transitionEvent, err = event.CreateEvent(event.SourceTypeSubmission, record.ID, project.Code,
			event.EventCategorySubmitted, statusChange(oldStatus, to), &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(transitionEvent)
	return record, nil
}

// ReviewAsImplementingOffice is the first review gate. Approval applies the
// submission's milestone states to the ledger, recomputes the project's
// progress figures and compiles the submission for the secretariat, all in
// one transaction.
func ReviewAsImplementingOffice(submissionId types.ID, approve bool, s *session.Session) (*domain.Project, error) {
	var project domain.Project
	var transitionEvent *event.EventRecord

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		submission := domain.SubmissionRecord{}
		if err := tx.Where(&domain.SubmissionRecord{ID: submissionId}).First(&submission).Error; err != nil {
			return err
		}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.Project{ID: submission.ProjectID}).First(&project).Error; err != nil {
			return err
		}
		if !s.Perms.HasRole(domain.ProjectRoleImplementingOffice + "_" + project.ID.String()) {
			return bizerror.ErrForbidden
		}
		if submission.Status != domain.SubmissionSubmitted {
			return &bizerror.ErrInvalidTransition{From: string(submission.Status), Trigger: TriggerOfficeApprove}
		}

		if !approve {
			if err := transitionSubmission(tx, &submission, domain.SubmissionRejected, nil); err != nil {
				return err
			}
			var err error
			transitionEvent, err = event.CreateEvent(event.SourceTypeSubmission, submission.ID, project.Code,
				event.EventCategoryOfficeRejected, nil, &s.Identity, tx)
			return err
		}

		to, ok := ProjectStateMachine.Accept(project.WorkflowStatus, TriggerOfficeApprove)
		if !ok {
			return &bizerror.ErrInvalidTransition{From: string(project.WorkflowStatus), Trigger: TriggerOfficeApprove}
		}

		for _, snapshot := range submission.MilestoneSnapshot {
			if err := ledger.UpdateMilestoneState(tx, project.ID, snapshot.MilestoneID,
				snapshot.Status, snapshot.Progress); err != nil {
				return err
			}
		}

		milestones, err := ledger.LoadMilestones(tx, project.ID)
		if err != nil {
			return err
		}
		figures := progress.Aggregate(milestones)

		changes := map[string]interface{}{
			"overall_progress":  figures.Overall,
			"timeline_progress": figures.Timeline,
			"budget_progress":   figures.Budget,
			"physical_progress": figures.Physical,
		}
		oldStatus := project.WorkflowStatus
		if err := transitionProjectWithChanges(tx, &project, to, changes); err != nil {
			return err
		}

		if err := transitionSubmission(tx, &submission, domain.SubmissionImplementingOfficeApproved,
			map[string]interface{}{"adjusted_progress": submission.ClaimedProgress}); err != nil {
			return err
		}

		transitionEvent, err = event.CreateEvent(event.SourceTypeSubmission, submission.ID, project.Code,
			event.EventCategoryOfficeApproved, statusChange(oldStatus, to), &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(transitionEvent)
	return &project, nil
}

// ReviewAsSecretariat issues the final per-division verdict. A fully
// approved submission validates the project and may auto-advance it to
// ongoing or completed; any single rejected division returns the whole
// submission to the field unit, while values already committed at office
// approval and the approved divisions' adjusted figures are retained.
func ReviewAsSecretariat(submissionId types.ID, verdicts domain.DivisionVerdicts, s *session.Session) (*domain.Project, error) {
	if !s.Perms.HasRole(authority.SystemSecretariatPermission) {
		return nil, bizerror.ErrForbidden
	}
	if err := checkVerdicts(verdicts); err != nil {
		return nil, err
	}

	var project domain.Project
	transitionEvents := []*event.EventRecord{}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		submission := domain.SubmissionRecord{}
		if err := tx.Where(&domain.SubmissionRecord{ID: submissionId}).First(&submission).Error; err != nil {
			return err
		}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where(&domain.Project{ID: submission.ProjectID}).First(&project).Error; err != nil {
			return err
		}
		if submission.Status != domain.SubmissionImplementingOfficeApproved {
			return &bizerror.ErrInvalidTransition{From: string(submission.Status), Trigger: TriggerSecretariatApprove}
		}

		if verdicts.Rejected() {
			to, ok := ProjectStateMachine.Accept(project.WorkflowStatus, TriggerSecretariatReject)
			if !ok {
				return &bizerror.ErrInvalidTransition{From: string(project.WorkflowStatus), Trigger: TriggerSecretariatReject}
			}
			adjusted := retainedProgress(submission.ClaimedProgress, verdicts)
			if err := transitionSubmission(tx, &submission, domain.SubmissionRejected,
				map[string]interface{}{"verdicts": verdicts, "adjusted_progress": adjusted}); err != nil {
				return err
			}
			oldStatus := project.WorkflowStatus
			if err := transitionProject(tx, &project, to); err != nil {
				return err
			}
			e, err := event.CreateEvent(event.SourceTypeSubmission, submission.ID, project.Code,
				event.EventCategorySecretariatRejected, statusChange(oldStatus, to), &s.Identity, tx)
			if err != nil {
				return err
			}
			transitionEvents = append(transitionEvents, e)
			return nil
		}

		// both secretariat edges are checked even though the intermediate
		// status is never externally visible
		approved, ok := ProjectStateMachine.Accept(project.WorkflowStatus, TriggerSecretariatApprove)
		if !ok {
			return &bizerror.ErrInvalidTransition{From: string(project.WorkflowStatus), Trigger: TriggerSecretariatApprove}
		}
		validated, ok := ProjectStateMachine.Accept(approved, TriggerSecretariatValidate)
		if !ok {
			return &bizerror.ErrInvalidTransition{From: string(approved), Trigger: TriggerSecretariatValidate}
		}

		if err := transitionSubmission(tx, &submission, domain.SubmissionSecretariatValidated,
			map[string]interface{}{"verdicts": verdicts, "final_progress": submission.AdjustedProgress}); err != nil {
			return err
		}
		oldStatus := project.WorkflowStatus
		if err := transitionProject(tx, &project, validated); err != nil {
			return err
		}
		e, err := event.CreateEvent(event.SourceTypeSubmission, submission.ID, project.Code,
			event.EventCategorySecretariatValidated, statusChange(oldStatus, validated), &s.Identity, tx)
		if err != nil {
			return err
		}
		transitionEvents = append(transitionEvents, e)

		advanceEvent, err := autoAdvance(tx, &project, s)
		if err != nil {
			return err
		}
		if advanceEvent != nil {
			transitionEvents = append(transitionEvents, advanceEvent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range transitionEvents {
		event.InvokeHandlersFunc(e)
	}
	return &project, nil
}

func QuerySubmissions(projectId types.ID, s *session.Session) ([]domain.SubmissionRecord, error) {
	if !s.Perms.HasProjectViewPerm(projectId) {
		return nil, bizerror.ErrForbidden
	}
	var records []domain.SubmissionRecord
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(domain.SubmissionRecord{ProjectID: projectId}).
		Order("create_time ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// autoAdvance moves a freshly validated project further when the ledger
// already tells the rest of the story: everything completed means the
// project is done, any milestone beyond pending means work is ongoing.
func autoAdvance(tx *gorm.DB, project *domain.Project, s *session.Session) (*event.EventRecord, error) {
	milestones, err := ledger.LoadMilestones(tx, project.ID)
	if err != nil {
		return nil, err
	}

	allCompleted := len(milestones) > 0
	anyStarted := false
	for _, m := range milestones {
		if m.Status != domain.MilestoneCompleted {
			allCompleted = false
		}
		if m.Status != domain.MilestonePending {
			anyStarted = true
		}
	}

	applied := progress.AppliedWeight(milestones)
	if allCompleted && applied >= 100-ledger.WeightTolerance {
		to, ok := ProjectStateMachine.Accept(project.WorkflowStatus, TriggerComplete)
		if !ok {
			return nil, &bizerror.ErrInvalidTransition{From: string(project.WorkflowStatus), Trigger: TriggerComplete}
		}
		oldStatus := project.WorkflowStatus
		if err := transitionProject(tx, project, to); err != nil {
			return nil, err
		}
		return event.CreateEvent(event.SourceTypeProject, project.ID, project.Code,
			event.EventCategoryCompleted, statusChange(oldStatus, to), &s.Identity, tx)
	}

	if anyStarted {
		to, ok := ProjectStateMachine.Accept(project.WorkflowStatus, TriggerBegin)
		if !ok {
			return nil, &bizerror.ErrInvalidTransition{From: string(project.WorkflowStatus), Trigger: TriggerBegin}
		}
		if err := transitionProject(tx, project, to); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func transitionProject(tx *gorm.DB, project *domain.Project, to domain.WorkflowStatus) error {
	return transitionProjectWithChanges(tx, project, to, map[string]interface{}{})
}

// transitionProjectWithChanges writes the status change and any derived
// field updates with a compare-and-swap on the previous status, so two
// racing reviews cannot both pass the guard.
func transitionProjectWithChanges(tx *gorm.DB, project *domain.Project, to domain.WorkflowStatus,
	changes map[string]interface{}) error {

	changes["workflow_status"] = to
	query := tx.Model(&domain.Project{}).
		Where(&domain.Project{ID: project.ID, WorkflowStatus: project.WorkflowStatus}).
		Update(changes)
	if err := query.Error; err != nil {
		return err
	}
	if query.RowsAffected != 1 {
		return &bizerror.ErrInvalidTransition{From: string(project.WorkflowStatus), Trigger: "concurrent modification"}
	}
	if err := tx.Where(&domain.Project{ID: project.ID}).First(project).Error; err != nil {
		return err
	}
	return nil
}

func transitionSubmission(tx *gorm.DB, submission *domain.SubmissionRecord,
	to domain.SubmissionStatus, changes map[string]interface{}) error {

	if changes == nil {
		changes = map[string]interface{}{}
	}
	changes["status"] = to
	changes["review_time"] = types.CurrentTimestamp()
	query := tx.Model(&domain.SubmissionRecord{}).
		Where("id = ? AND status = ?", submission.ID, submission.Status).
		Update(changes)
	if err := query.Error; err != nil {
		return err
	}
	if query.RowsAffected != 1 {
		return &bizerror.ErrInvalidTransition{From: string(submission.Status),
			Trigger: "concurrent modification, affected rows " + strconv.FormatInt(query.RowsAffected, 10)}
	}
	if err := tx.Where(&domain.SubmissionRecord{ID: submission.ID}).First(submission).Error; err != nil {
		return err
	}
	return nil
}

// buildSnapshot overlays the reported deltas onto the full persisted set; a
// submission always snapshots every milestone of the project.
func buildSnapshot(milestones []domain.Milestone, deltas []domain.MilestoneDelta) domain.MilestoneSnapshots {
	deltaById := map[types.ID]domain.MilestoneDelta{}
	for _, d := range deltas {
		deltaById[d.MilestoneID] = d
	}

	snapshots := make(domain.MilestoneSnapshots, 0, len(milestones))
	for _, m := range milestones {
		snapshot := domain.MilestoneSnapshot{
			MilestoneID: m.ID, Weight: m.Weight, Status: m.Status, Progress: m.Progress,
		}
		if d, found := deltaById[m.ID]; found {
			snapshot.Status = d.Status
			snapshot.Progress = d.Progress
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

// retainedProgress keeps the approved divisions' share of the claimed
// overall figure; rejected divisions are re-solicited from the field unit.
func retainedProgress(claimed float64, verdicts domain.DivisionVerdicts) float64 {
	retained := float64(0)
	for _, division := range domain.Divisions {
		if verdicts[division] == domain.VerdictApproved {
			retained += claimed / 3
		}
	}
	return retained
}

func checkVerdicts(verdicts domain.DivisionVerdicts) error {
	if len(verdicts) != len(domain.Divisions) {
		return &bizerror.ErrBadParam{}
	}
	for _, division := range domain.Divisions {
		v, found := verdicts[division]
		if !found || (v != domain.VerdictApproved && v != domain.VerdictRejected) {
			return &bizerror.ErrBadParam{}
		}
	}
	return nil
}

func statusChange(from, to domain.WorkflowStatus) []event.UpdatedProperty {
	return []event.UpdatedProperty{{
		PropertyName: "workflowStatus", PropertyDesc: "Workflow Status",
		OldValue: string(from), NewValue: string(to),
	}}
}
