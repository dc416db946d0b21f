package indices

import (
	"net/http"

	"bantay/bizerror"
	"bantay/session"

	"github.com/gin-gonic/gin"
)

var (
	PathProjectSearch = "/v1/project-search"
)

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProjectSearch, middleWares...)
	g.GET("", handleSearchProjects)
}

func handleSearchProjects(c *gin.Context) {
	query := ProjectSearchQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	docs, err := SearchProjectProgressFunc(query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, docs)
}
