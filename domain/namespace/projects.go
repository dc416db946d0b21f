package namespace

import (
	"bantay/authority"
	"bantay/bizerror"
	"bantay/domain"
	"bantay/idgen"
	"bantay/persistence"
	"bantay/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryProjectsFunc = QueryProjects
	CreateProjectFunc = CreateProject
	DetailProjectFunc = DetailProject
	UpdateProjectFunc = UpdateProject
)

func QueryProjects(s *session.Session) ([]domain.Project, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	var projects []domain.Project

	if s.Perms.HasGlobalViewRole() {
		if err := db.Order("code ASC").Find(&projects).Error; err != nil {
			return nil, err
		}
		return projects, nil
	}

	visible := s.VisibleProjects()
	if len(visible) == 0 {
		return []domain.Project{}, nil
	}
	if err := db.Where("id IN (?)", visible).Order("code ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject registers a monitored project in draft status with its two
// responsible parties assigned. Progress fields start at zero and are only
// ever written by the workflow afterwards.
func CreateProject(c *domain.ProjectCreating, s *session.Session) (*domain.Project, error) {
	if !s.Perms.HasRole(authority.SystemAdminPermission) {
		return nil, bizerror.ErrForbidden
	}

	project := domain.Project{
		ID:   idgen.NextID(idWorker),
		Code: c.Code,
		Name: c.Name,

		ImplementingOfficeID: c.ImplementingOfficeID,
		FieldUnitID:          c.FieldUnitID,

		WorkflowStatus: domain.StatusDraft,

		CreateTime: types.CurrentTimestamp(),
		Creator:    s.Identity.ID,
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject renames a project. Status, parties and progress figures are
// out of reach here on purpose.
func UpdateProject(id types.ID, u *domain.ProjectUpdating, s *session.Session) error {
	if !s.Perms.HasRole(authority.SystemAdminPermission) {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Model(&domain.Project{}).Where(&domain.Project{ID: id}).
		Update(map[string]interface{}{"name": u.Name})
	if err := query.Error; err != nil {
		return err
	}
	if query.RowsAffected != 1 {
		return bizerror.ErrNotFound
	}
	return nil
}

func DetailProject(id types.ID, s *session.Session) (*domain.Project, error) {
	project := domain.Project{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&domain.Project{ID: id}).First(&project).Error; err != nil {
		return nil, err
	}
	if !s.Perms.HasProjectViewPerm(project.ID) {
		return nil, bizerror.ErrForbidden
	}
	return &project, nil
}
