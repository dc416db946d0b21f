package workflow

import (
	"errors"
	"net/http"

	"bantay/bizerror"
	"bantay/domain"
	"bantay/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathProjectSubmissions = "/v1/projects/:projectId/submissions"
	PathSubmissions        = "/v1/submissions"
)

type SubmissionCreating struct {
	Deltas []domain.MilestoneDelta `json:"deltas" binding:"required,min=1,dive"`
}

type OfficeReviewing struct {
	Approve *bool `json:"approve" binding:"required"`
}

type SecretariatReviewing struct {
	Verdicts domain.DivisionVerdicts `json:"verdicts" binding:"required"`
}

func RegisterSubmissionsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	p := r.Group(PathProjectSubmissions, middleWares...)
	p.POST("", handleCreateSubmission)
	p.GET("", handleQuerySubmissions)

	s := r.Group(PathSubmissions, middleWares...)
	s.PATCH(":submissionId/office-review", handleOfficeReview)
	s.PATCH(":submissionId/secretariat-review", handleSecretariatReview)
}

func handleCreateSubmission(c *gin.Context) {
	projectId := parseIdParam(c, "projectId")

	creating := SubmissionCreating{}
	if err := c.ShouldBindBodyWith(&creating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := SubmitUpdateFunc(projectId, creating.Deltas, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQuerySubmissions(c *gin.Context) {
	projectId := parseIdParam(c, "projectId")

	records, err := QuerySubmissionsFunc(projectId, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleOfficeReview(c *gin.Context) {
	submissionId := parseIdParam(c, "submissionId")

	reviewing := OfficeReviewing{}
	if err := c.ShouldBindBodyWith(&reviewing, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	project, err := ReviewAsImplementingOfficeFunc(submissionId, *reviewing.Approve, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, project)
}

func handleSecretariatReview(c *gin.Context) {
	submissionId := parseIdParam(c, "submissionId")

	reviewing := SecretariatReviewing{}
	if err := c.ShouldBindBodyWith(&reviewing, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	project, err := ReviewAsSecretariatFunc(submissionId, reviewing.Verdicts, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, project)
}

func parseIdParam(c *gin.Context, name string) types.ID {
	id, err := types.ParseID(c.Param(name))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param(name) + "'")})
	}
	return id
}
