package session

import (
	"time"

	"pms/authority"

	"github.com/fundwit/go-commons/types"
)

type Context struct {
	Token    string                `json:"token"`
	Identity Identity              `json:"identity"`
	Perms    authority.Permissions `json:"perms"`

	SigningTime time.Time `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`

	DefaultRoleID types.ID `json:"defaultRoleId"`
}
