package task_test

import (
	"testing"

	"pms/audit"
	"pms/domain/project"
	"pms/domain/task"
	"pms/persistence"
	"pms/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("pms")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&task.Task{}, &project.Project{}, &audit.AuditRecord{}).Error).To(BeNil())
	persistence.ActiveDataSourceManager = db.DS

	Expect(db.DS.GormDB().Create(&project.Project{ID: 100, Title: "test project",
		ProjectCode: "BDG-2020-1", CreatedBy: 10, CreateTime: types.CurrentTimestamp()}).Error).To(BeNil())
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateTask(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should create a todo task under an existing project", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		sec := testinfra.BuildSecCtx(10)
		record, err := task.CreateTask(&task.TaskCreation{ProjectID: 100, Title: "site survey"}, sec)
		Expect(err).To(BeNil())
		Expect(record.Status).To(Equal(task.StatusTodo))
		Expect(record.CreatedBy).To(Equal(types.ID(10)))

		_, err = task.CreateTask(&task.TaskCreation{ProjectID: 404, Title: "orphan"}, sec)
		Expect(err).To(Equal(gorm.ErrRecordNotFound))
	})
}

func TestUpdateTask(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should update only the sent fields", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		sec := testinfra.BuildSecCtx(10)
		record, err := task.CreateTask(&task.TaskCreation{ProjectID: 100,
			Title: "site survey", Description: "walk the site"}, sec)
		Expect(err).To(BeNil())

		updated, err := task.UpdateTask(record.ID, &task.TaskUpdating{
			Status: task.StatusInProgress, AssigneeID: 20}, sec)
		Expect(err).To(BeNil())
		Expect(updated.Status).To(Equal(task.StatusInProgress))
		Expect(updated.AssigneeID).To(Equal(types.ID(20)))
		Expect(updated.Title).To(Equal("site survey"))
		Expect(updated.Description).To(Equal("walk the site"))
	})
}

func TestQueryTasks(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should filter by project, assignee and status", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		sec := testinfra.BuildSecCtx(10)
		first, err := task.CreateTask(&task.TaskCreation{ProjectID: 100, Title: "survey", AssigneeID: 20}, sec)
		Expect(err).To(BeNil())
		_, err = task.CreateTask(&task.TaskCreation{ProjectID: 100, Title: "permits", AssigneeID: 30}, sec)
		Expect(err).To(BeNil())

		result, err := task.QueryTasks(&task.TaskQuery{ProjectID: 100}, sec)
		Expect(err).To(BeNil())
		Expect(len(result)).To(Equal(2))

		result, err = task.QueryTasks(&task.TaskQuery{AssigneeID: 20}, sec)
		Expect(err).To(BeNil())
		Expect(len(result)).To(Equal(1))
		Expect(result[0].ID).To(Equal(first.ID))

		Expect(task.DeleteTask(first.ID, sec)).To(BeNil())
		Expect(task.DeleteTask(first.ID, sec)).To(BeNil())
		result, err = task.QueryTasks(&task.TaskQuery{ProjectID: 100}, sec)
		Expect(err).To(BeNil())
		Expect(len(result)).To(Equal(1))
	})
}
