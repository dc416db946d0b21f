package account

import (
	"github.com/fundwit/go-commons/types"
)

type User struct {
	ID   types.ID `json:"id" gorm:"primary_key"`
	Name string   `json:"name" gorm:"unique_index:name_unique"`

	Nickname string `json:"nickname"`

	// Secretariat marks membership of the oversight secretariat pool.
	Secretariat bool `json:"secretariat"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (u *User) TableName() string {
	return "users"
}
