package task

import (
	"pms/audit"
	"pms/bizerror"
	"pms/idgen"
	"pms/persistence"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	taskIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateTaskFunc = CreateTask
	UpdateTaskFunc = UpdateTask
	DeleteTaskFunc = DeleteTask
	QueryTasksFunc = QueryTasks
)

func CreateTask(creation *TaskCreation, sec *session.Context) (*Task, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	record := Task{ID: idgen.NextID(taskIdWorker), ProjectID: creation.ProjectID,
		Title: creation.Title, Description: creation.Description,
		AssigneeID: creation.AssigneeID, Status: StatusTodo, DueDate: creation.DueDate,
		CreatedBy: sec.Identity.ID, CreateTime: types.CurrentTimestamp()}

	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Table("projects").Where("id = ?", creation.ProjectID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		audit.RecordFunc(tx, "task", record.ID, "create", sec.Identity.ID, record.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateTask(id types.ID, updating *TaskUpdating, sec *session.Context) (*Task, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	record := Task{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&Task{ID: id}).First(&record).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{}
		if updating.Title != "" {
			changes["title"] = updating.Title
		}
		if updating.Description != "" {
			changes["description"] = updating.Description
		}
		if !updating.AssigneeID.IsZero() {
			changes["assignee_id"] = updating.AssigneeID
		}
		if updating.Status != "" {
			changes["status"] = updating.Status
		}
		if updating.DueDate != nil {
			changes["due_date"] = updating.DueDate
		}
		if len(changes) > 0 {
			if err := tx.Model(&Task{}).Where(&Task{ID: id}).Updates(changes).Error; err != nil {
				return err
			}
		}
		audit.RecordFunc(tx, "task", id, "update", sec.Identity.ID, "")
		return tx.Where(&Task{ID: id}).First(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteTask idempotent, deleting an absent task succeeds.
func DeleteTask(id types.ID, sec *session.Context) error {
	if sec == nil {
		return bizerror.ErrUnauthenticated
	}
	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Task{ID: id}).Error; err != nil {
			return err
		}
		audit.RecordFunc(tx, "task", id, "delete", sec.Identity.ID, "")
		return nil
	})
}

func QueryTasks(query *TaskQuery, sec *session.Context) ([]Task, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	tasks := []Task{}
	db := persistence.ActiveDataSourceManager.GormDB()
	q := db.Model(&Task{})
	if query != nil {
		if !query.ProjectID.IsZero() {
			q = q.Where("project_id = ?", query.ProjectID)
		}
		if !query.AssigneeID.IsZero() {
			q = q.Where("assignee_id = ?", query.AssigneeID)
		}
		if query.Status != "" {
			q = q.Where("status = ?", query.Status)
		}
	}
	if err := q.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
