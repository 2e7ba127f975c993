package document

import (
	"context"
	"io"

	"pms/audit"
	"pms/bizerror"
	"pms/client/s3"
	"pms/idgen"
	"pms/persistence"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	documentIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	UploadDocumentFunc   = UploadDocument
	DownloadDocumentFunc = DownloadDocument
	DeleteDocumentFunc   = DeleteDocument
	QueryDocumentsFunc   = QueryDocuments
)

// UploadDocument store the payload in the object bucket first, keyed by a
// random uuid, then record the metadata. A failed metadata write leaves an
// orphan object, which is harmless and cleaned by bucket lifecycle rules.
func UploadDocument(ctx context.Context, projectId types.ID, name, contentType string,
	size int64, payload io.Reader, sec *session.Context) (*Document, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	objectKey := uuid.New().String()
	if err := s3.PutObjectFunc(objectKey, payload, ctx); err != nil {
		return nil, err
	}

	record := Document{ID: idgen.NextID(documentIdWorker), ProjectID: projectId,
		Name: name, ContentType: contentType, Size: size, ObjectKey: objectKey,
		UploadedBy: sec.Identity.ID, CreateTime: types.CurrentTimestamp()}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Table("projects").Where("id = ?", projectId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		audit.RecordFunc(tx, "document", record.ID, "upload", sec.Identity.ID, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func DownloadDocument(ctx context.Context, id types.ID, sec *session.Context) (*Document, io.ReadCloser, error) {
	if sec == nil {
		return nil, nil, bizerror.ErrUnauthenticated
	}
	record := Document{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&Document{ID: id}).First(&record).Error; err != nil {
		return nil, nil, err
	}
	reader, err := s3.GetObjectFunc(record.ObjectKey, ctx)
	if err != nil {
		return nil, nil, err
	}
	return &record, reader, nil
}

// DeleteDocument drops the metadata only, the payload stays in the bucket for
// lifecycle cleanup.
func DeleteDocument(id types.ID, sec *session.Context) error {
	if sec == nil {
		return bizerror.ErrUnauthenticated
	}
	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		record := Document{}
		if err := tx.Where(&Document{ID: id}).First(&record).Error; err != nil {
			return err
		}
		if record.UploadedBy != sec.Identity.ID && !sec.Perms.HasRole("system:admin") {
			return bizerror.ErrForbidden
		}
		if err := tx.Delete(&Document{ID: id}).Error; err != nil {
			return err
		}
		audit.RecordFunc(tx, "document", id, "delete", sec.Identity.ID, record.Name)
		return nil
	})
}

func QueryDocuments(query *DocumentQuery, sec *session.Context) ([]Document, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	documents := []Document{}
	db := persistence.ActiveDataSourceManager.GormDB()
	q := db.Model(&Document{})
	if query != nil && !query.ProjectID.IsZero() {
		q = q.Where("project_id = ?", query.ProjectID)
	}
	if err := q.Order("create_time DESC").Find(&documents).Error; err != nil {
		return nil, err
	}
	return documents, nil
}
