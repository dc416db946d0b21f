package namespace

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
	PathProjects = "/v1/projects"
)

func RegisterProjectsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProjects, middleWares...)
	g.GET("", handleQueryProjects)
	g.POST("", handleCreateProject)
	g.GET(":projectId", handleDetailProject)
	g.PUT(":projectId", handleUpdateProject)
}

func handleQueryProjects(c *gin.Context) {
	projects, err := QueryProjectsFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, projects)
}

func handleCreateProject(c *gin.Context) {
	creating := domain.ProjectCreating{}
	if err := c.ShouldBindBodyWith(&creating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	project, err := CreateProjectFunc(&creating, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, project)
}

func handleUpdateProject(c *gin.Context) {
	projectId, err := types.ParseID(c.Param("projectId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("projectId") + "'")})
	}

	updating := domain.ProjectUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	if err := UpdateProjectFunc(projectId, &updating, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleDetailProject(c *gin.Context) {
	projectId, err := types.ParseID(c.Param("projectId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("projectId") + "'")})
	}

	project, err := DetailProjectFunc(projectId, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, project)
}
