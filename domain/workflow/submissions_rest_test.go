package workflow_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bantay/bizerror"
	"bantay/domain"
	"bantay/domain/progress"
	"bantay/domain/workflow"
	"bantay/session"
	"bantay/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestCreateSubmissionRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	workflow.RegisterSubmissionsRestAPI(router)

	t.Run("should be able to validate parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/projects/bad/submissions", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid id 'bad'","data":null}`))

		req = httptest.NewRequest(http.MethodPost, "/v1/projects/100/submissions", nil)
		status, body, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"EOF","data":null}`))

		req = httptest.NewRequest(http.MethodPost, "/v1/projects/100/submissions", strings.NewReader(`{"deltas":[]}`))
		status, body, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":
			"Key: 'SubmissionCreating.Deltas' Error:Field validation for 'Deltas' failed on the 'required' tag",
			"data":null}`))

		req = httptest.NewRequest(http.MethodPost, "/v1/projects/100/submissions", strings.NewReader(
			`{"deltas":[{"milestoneId":"1","status":"done"}]}`))
		status, body, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":
			"Key: 'SubmissionCreating.Deltas[0].Status' Error:Field validation for 'Status' failed on the 'oneof' tag",
			"data":null}`))
	})

	t.Run("should be able to handle domain errors", func(t *testing.T) {
		workflow.SubmitUpdateFunc = func(projectId types.ID, deltas []domain.MilestoneDelta, s *session.Session) (*domain.SubmissionRecord, error) {
			return nil, bizerror.ErrConcurrentSubmissionExists
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/projects/100/submissions", strings.NewReader(
			`{"deltas":[{"milestoneId":"1","status":"completed"}]}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"submission.concurrent_submission_exists",
			"message":"concurrent submission exists","data":null}`))

		workflow.SubmitUpdateFunc = func(projectId types.ID, deltas []domain.MilestoneDelta, s *session.Session) (*domain.SubmissionRecord, error) {
			return nil, errors.New("a mocked error")
		}
		req = httptest.NewRequest(http.MethodPost, "/v1/projects/100/submissions", strings.NewReader(
			`{"deltas":[{"milestoneId":"1","status":"completed"}]}`))
		status, body, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"a mocked error","data":null}`))
	})

	t.Run("should be able to create a submission successfully", func(t *testing.T) {
		demoTime := types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.Now().Location())
		timeBytes, err := demoTime.Time().MarshalJSON()
		Expect(err).To(BeNil())
		timeString := strings.Trim(string(timeBytes), `"`)

		workflow.SubmitUpdateFunc = func(projectId types.ID, deltas []domain.MilestoneDelta, s *session.Session) (*domain.SubmissionRecord, error) {
			return &domain.SubmissionRecord{
				ID: 2001, ProjectID: projectId, SubmitterID: 20, SubmitterRole: domain.ProjectRoleFieldUnit,
				MilestoneSnapshot: domain.MilestoneSnapshots{
					{MilestoneID: deltas[0].MilestoneID, Weight: 100, Status: deltas[0].Status, Progress: deltas[0].Progress},
				},
				ClaimedProgress: 100, Status: domain.SubmissionSubmitted,
				CreateTime: demoTime, ReviewTime: demoTime,
			}, nil
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/projects/100/submissions", strings.NewReader(
			`{"deltas":[{"milestoneId":"1","status":"completed"}]}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(MatchJSON(`{"id":"2001","projectId":"100","submitterId":"20","submitterRole":"field_unit",
			"milestoneSnapshot":[{"milestoneId":"1","weight":100,"status":"completed","progress":0}],
			"claimedProgress":100,"adjustedProgress":0,"finalProgress":0,
			"status":"submitted","verdicts":null,
			"createTime":"` + timeString + `","reviewTime":"` + timeString + `"}`))
	})
}

func TestQuerySubmissionsRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	workflow.RegisterSubmissionsRestAPI(router)

	t.Run("should be able to handle error", func(t *testing.T) {
		workflow.QuerySubmissionsFunc = func(projectId types.ID, s *session.Session) ([]domain.SubmissionRecord, error) {
			return nil, bizerror.ErrForbidden
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/projects/100/submissions", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code":"security.forbidden","message":"access forbidden","data":null}`))
	})

	t.Run("should be able to query successfully", func(t *testing.T) {
		workflow.QuerySubmissionsFunc = func(projectId types.ID, s *session.Session) ([]domain.SubmissionRecord, error) {
			return []domain.SubmissionRecord{}, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/projects/100/submissions", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[]`))
	})
}

func TestOfficeReviewRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	workflow.RegisterSubmissionsRestAPI(router)

	t.Run("should be able to validate parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/v1/submissions/bad/office-review", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid id 'bad'","data":null}`))

		req = httptest.NewRequest(http.MethodPatch, "/v1/submissions/200/office-review", strings.NewReader(`{}`))
		status, body, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":
			"Key: 'OfficeReviewing.Approve' Error:Field validation for 'Approve' failed on the 'required' tag",
			"data":null}`))
	})

	t.Run("should be able to handle transition conflicts", func(t *testing.T) {
		workflow.ReviewAsImplementingOfficeFunc = func(submissionId types.ID, approve bool, s *session.Session) (*domain.Project, error) {
			return nil, &bizerror.ErrInvalidTransition{From: "rejected", Trigger: "office_approve"}
		}
		req := httptest.NewRequest(http.MethodPatch, "/v1/submissions/200/office-review", strings.NewReader(`{"approve":true}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"workflow.invalid_transition",
			"message":"transition 'office_approve' is not acceptable in status 'rejected'","data":null}`))
	})

	t.Run("should be able to review successfully", func(t *testing.T) {
		demoTime := types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.Now().Location())
		timeBytes, err := demoTime.Time().MarshalJSON()
		Expect(err).To(BeNil())
		timeString := strings.Trim(string(timeBytes), `"`)

		workflow.ReviewAsImplementingOfficeFunc = func(submissionId types.ID, approve bool, s *session.Session) (*domain.Project, error) {
			Expect(submissionId).To(Equal(types.ID(200)))
			Expect(approve).To(BeFalse())
			return &domain.Project{
				ID: 100, Code: "PRJ-100", Name: "project 100",
				ImplementingOfficeID: 10, FieldUnitID: 20,
				WorkflowStatus: domain.StatusSubmitted, CreateTime: demoTime, Creator: 1,
			}, nil
		}
		req := httptest.NewRequest(http.MethodPatch, "/v1/submissions/200/office-review", strings.NewReader(`{"approve":false}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id":"100","code":"PRJ-100","name":"project 100",
			"implementingOfficeId":"10","fieldUnitId":"20","workflowStatus":"submitted",
			"overallProgress":0,"timelineProgress":0,"budgetProgress":0,"physicalProgress":0,
			"createTime":"` + timeString + `","creator":"1"}`))
	})
}

func TestSecretariatReviewRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	workflow.RegisterSubmissionsRestAPI(router)

	t.Run("should be able to validate parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/v1/submissions/200/secretariat-review", strings.NewReader(`{}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":
			"Key: 'SecretariatReviewing.Verdicts' Error:Field validation for 'Verdicts' failed on the 'required' tag",
			"data":null}`))
	})

	t.Run("should be able to review successfully", func(t *testing.T) {
		demoTime := types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.Now().Location())
		timeBytes, err := demoTime.Time().MarshalJSON()
		Expect(err).To(BeNil())
		timeString := strings.Trim(string(timeBytes), `"`)

		workflow.ReviewAsSecretariatFunc = func(submissionId types.ID, verdicts domain.DivisionVerdicts, s *session.Session) (*domain.Project, error) {
			Expect(verdicts).To(Equal(domain.DivisionVerdicts{
				domain.DivisionTimeline: domain.VerdictApproved,
				domain.DivisionBudget:   domain.VerdictApproved,
				domain.DivisionPhysical: domain.VerdictRejected,
			}))
			return &domain.Project{
				ID: 100, Code: "PRJ-100", Name: "project 100",
				ImplementingOfficeID: 10, FieldUnitID: 20,
				WorkflowStatus: domain.StatusSubmitted,
				OverallProgress: 20, TimelineProgress: 6.67, BudgetProgress: 6.67, PhysicalProgress: 6.67,
				CreateTime: demoTime, Creator: 1,
			}, nil
		}
		req := httptest.NewRequest(http.MethodPatch, "/v1/submissions/200/secretariat-review", strings.NewReader(
			`{"verdicts":{"timeline":"approved","budget":"approved","physical":"rejected"}}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id":"100","code":"PRJ-100","name":"project 100",
			"implementingOfficeId":"10","fieldUnitId":"20","workflowStatus":"submitted",
			"overallProgress":20,"timelineProgress":6.67,"budgetProgress":6.67,"physicalProgress":6.67,
			"createTime":"` + timeString + `","creator":"1"}`))
	})
}

func progressFigures(overall float64) progress.Figures {
	return progress.Figures{Overall: overall, Timeline: overall / 3, Budget: overall / 3, Physical: overall / 3}
}

func TestProgressRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	workflow.RegisterProgressRestAPI(router)

	t.Run("should be able to validate parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/projects/bad/progress", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid id 'bad'","data":null}`))
	})

	t.Run("should be able to read the committed figures", func(t *testing.T) {
		workflow.GetProjectProgressFunc = func(projectId types.ID, s *session.Session) (*workflow.ProgressBrief, error) {
			brief := &workflow.ProgressBrief{ProjectID: projectId, WorkflowStatus: domain.StatusOngoing}
			brief.Overall = 57.5
			brief.Timeline = 19.17
			brief.Budget = 19.17
			brief.Physical = 19.17
			return brief, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/projects/100/progress", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"projectId":"100","workflowStatus":"ongoing",
			"overall":57.5,"timeline":19.17,"budget":19.17,"physical":19.17}`))
	})

	t.Run("should be able to reconcile without mutating", func(t *testing.T) {
		workflow.ReconcileProgressFunc = func(projectId types.ID, s *session.Session) (*workflow.ReconcileReport, error) {
			return &workflow.ReconcileReport{
				ProjectID: projectId,
				Recorded:  progressFigures(66), Computed: progressFigures(0), Drift: 66,
			}, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/projects/100/progress/reconciliation", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"projectId":"100",
			"recorded":{"overall":66,"timeline":22,"budget":22,"physical":22},
			"computed":{"overall":0,"timeline":0,"budget":0,"physical":0},
			"drift":66}`))
	})
}
