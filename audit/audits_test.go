package audit_test

import (
	"bytes"
	"strings"
	"testing"

	"pms/audit"
	"pms/bizerror"
	"pms/persistence"
	"pms/testinfra"

	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("pms")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&audit.AuditRecord{}).Error).To(BeNil())
	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestRecord(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should append an audit row in the caller's transaction", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := persistence.ActiveDataSourceManager.GormDB()
		audit.Record(db, "project", 100, "create", 10, "Project created")

		records := []audit.AuditRecord{}
		Expect(db.Find(&records).Error).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].EntityType).To(Equal("project"))
		Expect(records[0].Action).To(Equal("create"))
		Expect(records[0].Detail).To(Equal("Project created"))
	})
}

func TestQueryRecords(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only admins may query, filters apply", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := persistence.ActiveDataSourceManager.GormDB()
		audit.Record(db, "project", 100, "create", 10, "")
		audit.Record(db, "project", 101, "update", 10, "")
		audit.Record(db, "approval", 200, "approve", 20, "")

		_, err := audit.QueryRecords(&audit.AuditQuery{}, testinfra.BuildSecCtx(10))
		Expect(err).To(Equal(bizerror.ErrForbidden))

		admin := testinfra.BuildSecCtx(10, "system:admin")
		all, err := audit.QueryRecords(&audit.AuditQuery{}, admin)
		Expect(err).To(BeNil())
		Expect(len(all)).To(Equal(3))

		projectOnly, err := audit.QueryRecords(&audit.AuditQuery{EntityType: "project"}, admin)
		Expect(err).To(BeNil())
		Expect(len(projectOnly)).To(Equal(2))

		one, err := audit.QueryRecords(&audit.AuditQuery{EntityType: "project", EntityID: 101}, admin)
		Expect(err).To(BeNil())
		Expect(len(one)).To(Equal(1))
		Expect(one[0].Action).To(Equal("update"))
	})
}

func TestExportCSV(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should stream matching records with a header row", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := persistence.ActiveDataSourceManager.GormDB()
		audit.Record(db, "project", 100, "create", 10, "Project created")

		buf := bytes.Buffer{}
		Expect(audit.ExportCSV(&buf, &audit.AuditQuery{}, testinfra.BuildSecCtx(10, "system:admin"))).To(BeNil())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(len(lines)).To(Equal(2))
		Expect(lines[0]).To(Equal("id,entityType,entityId,action,actorId,detail,createTime"))
		Expect(lines[1]).To(ContainSubstring("project,100,create,10,Project created"))
	})

	t.Run("should reject non-admin callers", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		buf := bytes.Buffer{}
		Expect(audit.ExportCSV(&buf, &audit.AuditQuery{}, testinfra.BuildSecCtx(10))).To(Equal(bizerror.ErrForbidden))
	})
}
