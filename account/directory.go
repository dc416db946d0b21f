package account

import (
	"context"
	"time"

	"bantay/domain"
	"bantay/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/patrickmn/go-cache"
)

var (
	ImplementingOfficerOfFunc = ImplementingOfficerOf
	FieldUnitOfFunc           = FieldUnitOf
	SecretariatPoolFunc       = SecretariatPool
)

const secretariatPoolCacheKey = "secretariat-pool"

var secretariatPoolCache = cache.New(1*time.Minute, 1*time.Minute)

// ImplementingOfficerOf resolves the first-line reviewer of a project.
func ImplementingOfficerOf(projectId types.ID) (types.ID, error) {
	project := domain.Project{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&domain.Project{ID: projectId}).First(&project).Error; err != nil {
		return 0, err
	}
	return project.ImplementingOfficeID, nil
}

// FieldUnitOf resolves the reporting unit of a project.
func FieldUnitOf(projectId types.ID) (types.ID, error) {
	project := domain.Project{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&domain.Project{ID: projectId}).First(&project).Error; err != nil {
		return 0, err
	}
	return project.FieldUnitID, nil
}

// SecretariatPool returns the user ids of the oversight secretariat. The pool
// changes rarely, so lookups are cached for a minute.
func SecretariatPool() ([]types.ID, error) {
	if cached, found := secretariatPoolCache.Get(secretariatPoolCacheKey); found {
		if ids, ok := cached.([]types.ID); ok {
			return ids, nil
		}
	}

	var users []User
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&User{Secretariat: true}).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	ids := make([]types.ID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	secretariatPoolCache.Set(secretariatPoolCacheKey, ids, cache.DefaultExpiration)
	return ids, nil
}

// InvalidateSecretariatPoolCache drops the cached pool, for tests and user
// administration hooks.
func InvalidateSecretariatPoolCache() {
	secretariatPoolCache.Delete(secretariatPoolCacheKey)
}
