package session

import (
	"context"
	"strings"
	"time"

	"bantay/authority"

	"github.com/fundwit/go-commons/types"
)

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

type Session struct {
	Token        string                 `json:"token"`
	Identity     Identity               `json:"identity"`
	Perms        authority.Permissions  `json:"perms"`
	ProjectRoles authority.ProjectRoles `json:"projectRoles"`

	SigningTime time.Time `json:"-"`

	Context context.Context `json:"-"`
}

func (s *Session) Clone() Session {
	c := *s
	return c
}

// VisibleProjects parses visible project ids from Session.Perms
func (s *Session) VisibleProjects() []types.ID {
	var projectIds []types.ID
	for _, v := range s.Perms {
		idx := strings.LastIndex(v, "_")
		if idx > 0 {
			id, err := types.ParseID(v[idx+1:])
			if err != nil {
				continue
			}
			projectIds = append(projectIds, id)
		}
	}
	if projectIds == nil {
		return []types.ID{}
	}
	return projectIds
}
