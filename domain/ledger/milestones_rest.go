package ledger

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
	PathProjectMilestones = "/v1/projects/:projectId/milestones"
)

type MilestoneSetDefining struct {
	Milestones []domain.MilestoneDefinition `json:"milestones" binding:"required,min=1,dive"`
}

func RegisterMilestonesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProjectMilestones, middleWares...)
	g.PUT("", handleSetMilestones)
	g.GET("", handleGetMilestones)
}

func handleSetMilestones(c *gin.Context) {
	projectId, err := types.ParseID(c.Param("projectId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("projectId") + "'")})
	}

	defining := MilestoneSetDefining{}
	if err := c.ShouldBindBodyWith(&defining, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	milestones, err := SetMilestonesFunc(projectId, defining.Milestones, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, milestones)
}

func handleGetMilestones(c *gin.Context) {
	projectId, err := types.ParseID(c.Param("projectId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("projectId") + "'")})
	}

	milestones, err := GetMilestonesFunc(projectId, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, milestones)
}
