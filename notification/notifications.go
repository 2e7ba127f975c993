package notification

import (
	"pms/bizerror"
	"pms/idgen"
	"pms/persistence"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	notificationIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateNotificationFunc = CreateNotification
	QueryMyNotifications   = queryMyNotifications
	MarkReadFunc           = MarkRead
)

// CreateNotification append an inbox row inside the caller's transaction.
// Failures here must not break the business write, callers ignore the error
// when the notification is best effort.
func CreateNotification(tx *gorm.DB, userId types.ID, notificationType, message string) error {
	n := Notification{ID: idgen.NextID(notificationIdWorker), UserID: userId,
		Type: notificationType, Message: message, CreateTime: types.CurrentTimestamp()}
	return tx.Create(&n).Error
}

func queryMyNotifications(onlyUnread bool, sec *session.Context) ([]Notification, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	notifications := []Notification{}
	db := persistence.ActiveDataSourceManager.GormDB()
	q := db.Where(&Notification{UserID: sec.Identity.ID})
	if onlyUnread {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Order("create_time DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead only the owner can mark a notification read.
func MarkRead(id types.ID, sec *session.Context) error {
	if sec == nil {
		return bizerror.ErrUnauthenticated
	}
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		n := Notification{}
		if err := tx.Where(&Notification{ID: id}).First(&n).Error; err != nil {
			return err
		}
		if n.UserID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}
		return tx.Model(&Notification{}).Where(&Notification{ID: id}).
			Update("is_read", true).Error
	})
}
