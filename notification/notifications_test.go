package notification_test

import (
	"testing"

	"pms/bizerror"
	"pms/notification"
	"pms/persistence"
	"pms/testinfra"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("pms")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&notification.Notification{}).Error).To(BeNil())
	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestNotifications(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("a user sees only their own inbox, unread first class", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := persistence.ActiveDataSourceManager.GormDB()
		Expect(db.Transaction(func(tx *gorm.DB) error {
			if err := notification.CreateNotification(tx, 10, "approval_step_assigned", "step waiting"); err != nil {
				return err
			}
			if err := notification.CreateNotification(tx, 10, "approval_returned", "returned for revision"); err != nil {
				return err
			}
			return notification.CreateNotification(tx, 20, "approval_step_assigned", "someone else's")
		})).To(BeNil())

		mine, err := notification.QueryMyNotifications(false, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(len(mine)).To(Equal(2))

		Expect(notification.MarkRead(mine[0].ID, testinfra.BuildSecCtx(10))).To(BeNil())
		unread, err := notification.QueryMyNotifications(true, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(len(unread)).To(Equal(1))
	})

	t.Run("only the owner can mark a notification read", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := persistence.ActiveDataSourceManager.GormDB()
		Expect(db.Transaction(func(tx *gorm.DB) error {
			return notification.CreateNotification(tx, 10, "approval_step_assigned", "step waiting")
		})).To(BeNil())

		mine, err := notification.QueryMyNotifications(false, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(len(mine)).To(Equal(1))

		Expect(notification.MarkRead(mine[0].ID, testinfra.BuildSecCtx(99))).To(Equal(bizerror.ErrForbidden))
	})
}
