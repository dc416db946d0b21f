package testinfra

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"

	"bantay/authority"
	"bantay/domain"
	"bantay/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSecCtx builds a session for tests. Project-scoped perms look like
// "implementing_office_100" and are parsed back into ProjectRoles.
func BuildSecCtx(uid types.ID, perms ...string) *session.Session {
	projectRoles := authority.ProjectRoles{}
	for _, perm := range perms {
		idx := strings.LastIndex(perm, "_")
		if idx <= 0 {
			continue
		}
		projectId, err := types.ParseID(perm[idx+1:])
		if err != nil {
			continue
		}
		projectRoles = append(projectRoles, domain.ProjectRole{ProjectID: projectId, Role: perm[0:idx]})
	}

	return &session.Session{
		Identity:     session.Identity{ID: uid},
		Perms:        perms,
		ProjectRoles: projectRoles,
		Context:      context.Background(),
	}
}

func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := w.Result()
	bodyBytes, _ := ioutil.ReadAll(resp.Body)
	return resp.StatusCode, string(bodyBytes), resp
}
