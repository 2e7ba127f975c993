package document_test

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	"pms/audit"
	"pms/client/s3"
	"pms/domain/document"
	"pms/domain/project"
	"pms/persistence"
	"pms/testinfra"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("pms")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&project.Project{}, &document.Document{},
		&audit.AuditRecord{}).Error).To(BeNil())
	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func seedProject(t *testing.T, id types.ID) {
	db := persistence.ActiveDataSourceManager.GormDB()
	Expect(db.Create(&project.Project{ID: id, Title: "demo", ProjectCode: "BDG-2026-" + id.String(),
		CurrentStageID: 1, CreatedBy: 10, CreateTime: types.CurrentTimestamp()}).Error).To(BeNil())
}

func TestUploadDocument(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should store the payload then the metadata", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedProject(t, 100)

		storedKeys := []string{}
		storedBodies := []string{}
		s3.PutObjectFunc = func(key string, reader io.Reader, ctx context.Context, opts ...oss.Option) error {
			body, err := ioutil.ReadAll(reader)
			Expect(err).To(BeNil())
			storedKeys = append(storedKeys, key)
			storedBodies = append(storedBodies, string(body))
			return nil
		}

		sec := testinfra.BuildSecCtx(10)
		record, err := document.UploadDocument(context.Background(), 100, "feasibility.pdf",
			"application/pdf", 9, strings.NewReader("%PDF-demo"), sec)
		Expect(err).To(BeNil())
		Expect(record.ID).ToNot(BeZero())
		Expect(record.Name).To(Equal("feasibility.pdf"))
		Expect(record.UploadedBy).To(Equal(types.ID(10)))

		Expect(len(storedKeys)).To(Equal(1))
		Expect(storedBodies[0]).To(Equal("%PDF-demo"))

		saved := document.Document{}
		db := persistence.ActiveDataSourceManager.GormDB()
		Expect(db.Where("id = ?", record.ID).First(&saved).Error).To(BeNil())
		Expect(saved.ProjectID).To(Equal(types.ID(100)))
	})

	t.Run("should reject uploads against an unknown project", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		s3.PutObjectFunc = func(key string, reader io.Reader, ctx context.Context, opts ...oss.Option) error {
			return nil
		}

		sec := testinfra.BuildSecCtx(10)
		_, err := document.UploadDocument(context.Background(), 404, "x.txt",
			"text/plain", 1, strings.NewReader("x"), sec)
		Expect(err).To(Equal(gorm.ErrRecordNotFound))
	})
}

func TestDownloadDocument(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should stream the stored payload with its metadata", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedProject(t, 100)

		s3.PutObjectFunc = func(key string, reader io.Reader, ctx context.Context, opts ...oss.Option) error {
			return nil
		}
		s3.GetObjectFunc = func(key string, ctx context.Context, opts ...oss.Option) (io.ReadCloser, error) {
			return ioutil.NopCloser(bytes.NewReader([]byte("payload of " + key))), nil
		}

		sec := testinfra.BuildSecCtx(10)
		record, err := document.UploadDocument(context.Background(), 100, "report.txt",
			"text/plain", 4, strings.NewReader("data"), sec)
		Expect(err).To(BeNil())

		found, reader, err := document.DownloadDocument(context.Background(), record.ID, sec)
		Expect(err).To(BeNil())
		defer reader.Close()
		Expect(found.Name).To(Equal("report.txt"))
		body, err := ioutil.ReadAll(reader)
		Expect(err).To(BeNil())
		Expect(string(body)).To(HavePrefix("payload of "))
	})
}

func TestDeleteDocument(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only the uploader or an admin may delete", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		seedProject(t, 100)

		s3.PutObjectFunc = func(key string, reader io.Reader, ctx context.Context, opts ...oss.Option) error {
			return nil
		}

		sec := testinfra.BuildSecCtx(10)
		record, err := document.UploadDocument(context.Background(), 100, "draft.txt",
			"text/plain", 1, strings.NewReader("d"), sec)
		Expect(err).To(BeNil())

		Expect(document.DeleteDocument(record.ID, testinfra.BuildSecCtx(99))).ToNot(BeNil())
		Expect(document.DeleteDocument(record.ID, testinfra.BuildSecCtx(99, "system:admin"))).To(BeNil())

		remains, err := document.QueryDocuments(&document.DocumentQuery{ProjectID: 100}, sec)
		Expect(err).To(BeNil())
		Expect(len(remains)).To(BeZero())
	})
}
