package task

import "github.com/fundwit/go-commons/types"

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

type Task struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	AssigneeID  types.ID `json:"assigneeId"`
	Status      string   `json:"status"`

	DueDate    *types.Timestamp `json:"dueDate" sql:"type:DATETIME(6)"`
	CreatedBy  types.ID        `json:"createdBy"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type TaskCreation struct {
	ProjectID   types.ID         `json:"projectId" binding:"required"`
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	AssigneeID  types.ID         `json:"assigneeId"`
	DueDate     *types.Timestamp `json:"dueDate"`
}

type TaskUpdating struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	AssigneeID  types.ID         `json:"assigneeId"`
	Status      string           `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	DueDate     *types.Timestamp `json:"dueDate"`
}

type TaskQuery struct {
	ProjectID  types.ID `form:"projectId"`
	AssigneeID types.ID `form:"assigneeId"`
	Status     string   `form:"status"`
}
