package workflow

import (
	"net/http"

	"bantay/session"

	"github.com/gin-gonic/gin"
)

var (
	PathProjectProgress = "/v1/projects/:projectId/progress"
)

func RegisterProgressRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProjectProgress, middleWares...)
	g.GET("", handleGetProgress)
	g.GET("/reconciliation", handleReconcileProgress)
}

func handleGetProgress(c *gin.Context) {
	projectId := parseIdParam(c, "projectId")

	brief, err := GetProjectProgressFunc(projectId, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, brief)
}

func handleReconcileProgress(c *gin.Context) {
	projectId := parseIdParam(c, "projectId")

	report, err := ReconcileProgressFunc(projectId, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, report)
}
