package audit

import (
	"encoding/csv"
	"io"

	"pms/bizerror"
	"pms/common"
	"pms/idgen"
	"pms/persistence"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	auditIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	RecordFunc       = Record
	QueryRecordsFunc = QueryRecords
)

// Record append an audit row inside the caller's transaction. An audit write
// failure is logged but never fails the business action.
func Record(tx *gorm.DB, entityType string, entityId types.ID, action string, actorId types.ID, detail string) {
	r := AuditRecord{ID: idgen.NextID(auditIdWorker), EntityType: entityType, EntityID: entityId,
		Action: action, ActorID: actorId, Detail: detail, CreateTime: types.CurrentTimestamp()}
	if err := tx.Create(&r).Error; err != nil {
		logrus.StandardLogger().WithField("entityType", entityType).WithField("entityId", entityId).
			Warnf("failed to write audit record: %v", err)
	}
}

func QueryRecords(query *AuditQuery, sec *session.Context) ([]AuditRecord, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	if !sec.Perms.HasRole(common.GetServiceName() + ":admin") && !sec.Perms.HasRole("system:admin") {
		return nil, bizerror.ErrForbidden
	}
	records := []AuditRecord{}
	db := persistence.ActiveDataSourceManager.GormDB()
	q := db.Model(&AuditRecord{})
	if query != nil {
		if query.EntityType != "" {
			q = q.Where("entity_type = ?", query.EntityType)
		}
		if !query.EntityID.IsZero() {
			q = q.Where("entity_id = ?", query.EntityID)
		}
	}
	if err := q.Order("create_time DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ExportCSV stream matching records as CSV for offline review.
func ExportCSV(w io.Writer, query *AuditQuery, sec *session.Context) error {
	records, err := QueryRecordsFunc(query, sec)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "entityType", "entityId", "action", "actorId", "detail", "createTime"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.ID.String(), r.EntityType, r.EntityID.String(), r.Action,
			r.ActorID.String(), r.Detail, r.CreateTime.Time().String()}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
