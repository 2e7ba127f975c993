package audit

import "github.com/fundwit/go-commons/types"

// AuditRecord one business action on one entity, written in the same
// transaction as the action itself.
type AuditRecord struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	EntityType string   `json:"entityType"`
	EntityID   types.ID `json:"entityId"`
	Action     string   `json:"action"`
	ActorID    types.ID `json:"actorId"`
	Detail     string   `json:"detail"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type AuditQuery struct {
	EntityType string `form:"entityType"`
	EntityID   types.ID `form:"entityId"`
}
