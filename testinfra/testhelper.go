package testinfra

import (
	"pms/authority"
	"pms/session"

	"github.com/fundwit/go-commons/types"
)

// BuildSecCtx build a signed-in security context for tests.
func BuildSecCtx(uid types.ID, perms ...string) *session.Context {
	return &session.Context{Token: "test-token", Identity: session.Identity{ID: uid}, Perms: authority.Permissions(perms)}
}

// BuildSecCtxWithRole build a security context carrying a default role id.
func BuildSecCtxWithRole(uid types.ID, defaultRoleId types.ID, perms ...string) *session.Context {
	c := BuildSecCtx(uid, perms...)
	c.Identity.DefaultRoleID = defaultRoleId
	return c
}
