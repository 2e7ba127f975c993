package notification

import "github.com/fundwit/go-commons/types"

type Notification struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	UserID types.ID `json:"userId"`

	Type    string `json:"type"`
	Message string `json:"message"`
	IsRead  bool   `json:"isRead"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}
