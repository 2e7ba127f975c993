package account

import "github.com/fundwit/go-commons/types"

type User struct {
	ID     types.ID `json:"id"`
	Name   string   `json:"name" gorm:"unique_index:uni_user_name"`
	Secret string   `json:"secret"`

	Nickname      string   `json:"nickname"`
	DefaultRoleID types.ID `json:"defaultRoleId"`
}

type Role struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name" gorm:"unique_index:uni_role_name"`

	Description  string `json:"description"`
	IsSystemRole bool   `json:"isSystemRole"`
}

type UserInfo struct {
	ID            types.ID `json:"id"`
	Name          string   `json:"name"`
	Nickname      string   `json:"nickname"`
	DefaultRoleID types.ID `json:"defaultRoleId"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=32"`
}

type UserCreation struct {
	Name          string   `json:"name" binding:"required,lte=32"`
	Secret        string   `json:"secret" binding:"required,gte=6,lte=32"`
	Nickname      string   `json:"nickname" binding:"omitempty,gte=1,lte=32"`
	DefaultRoleID types.ID `json:"defaultRoleId"`
}

type Permission struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

var SystemAdminPermission = Permission{ID: "system:admin", Title: "System Administrator"}

func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}
