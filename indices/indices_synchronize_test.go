package indices_test

import (
	"errors"
	"testing"
	"time"

	"pms/account"
	"pms/authority"
	"pms/bizerror"
	"pms/domain/project"
	"pms/es"
	"pms/indices"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestScheduleNewSyncRun(t *testing.T) {
	RegisterTestingT(t)

	t.Run("only system admin can schedule sync run", func(t *testing.T) {
		sec := session.Context{Perms: authority.Permissions{"manager"}}
		success, err := indices.ScheduleNewSyncRun(&sec)
		Expect(err).To(Equal(bizerror.ErrForbidden))
		Expect(success).To(BeFalse())

		success, err = indices.ScheduleNewSyncRun(nil)
		Expect(err).To(Equal(bizerror.ErrForbidden))
		Expect(success).To(BeFalse())
	})

	t.Run("schedule sync run channel should works", func(t *testing.T) {
		indices.IndicesFullSyncFunc = func() error {
			time.Sleep(100 * time.Millisecond)
			return nil
		}
		defer func() {
			indices.IndicesFullSyncFunc = indices.IndicesFullSync
		}()

		sec := session.Context{Perms: authority.Permissions{account.SystemAdminPermission.ID}}
		success, err := indices.ScheduleNewSyncRun(&sec)
		Expect(err).To(BeNil())
		Expect(success).To(BeTrue())

		success, err = indices.ScheduleNewSyncRun(&sec)
		Expect(err).To(BeNil())
		Expect(success).To(BeFalse())

		time.Sleep(200 * time.Millisecond)

		success, err = indices.ScheduleNewSyncRun(&sec)
		Expect(err).To(BeNil())
		Expect(success).To(BeTrue())
		time.Sleep(200 * time.Millisecond)
	})
}

func TestIndicesFullSync(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should page through all projects until an empty page", func(t *testing.T) {
		indexed := []types.ID{}
		es.IndexFunc = func(index string, id types.ID, doc interface{}) error {
			Expect(index).To(Equal(indices.ProjectIndexName))
			indexed = append(indexed, id)
			return nil
		}
		pagesLoaded := []int{}
		project.LoadProjectsFunc = func(page, size int) ([]project.Project, error) {
			pagesLoaded = append(pagesLoaded, page)
			if page > 2 {
				return []project.Project{}, nil
			}
			return []project.Project{{ID: types.ID(page*10 + 1)}, {ID: types.ID(page*10 + 2)}}, nil
		}
		defer func() {
			es.IndexFunc = es.Index
			project.LoadProjectsFunc = project.LoadProjects
		}()

		Expect(indices.IndicesFullSync()).To(BeNil())
		Expect(pagesLoaded).To(Equal([]int{1, 2, 3}))
		Expect(indexed).To(Equal([]types.ID{11, 12, 21, 22}))
	})

	t.Run("index failures should not stop the run", func(t *testing.T) {
		es.IndexFunc = func(index string, id types.ID, doc interface{}) error {
			return errors.New("error on index document")
		}
		project.LoadProjectsFunc = func(page, size int) ([]project.Project, error) {
			if page > 1 {
				return []project.Project{}, nil
			}
			return []project.Project{{ID: 100}}, nil
		}
		defer func() {
			es.IndexFunc = es.Index
			project.LoadProjectsFunc = project.LoadProjects
		}()

		Expect(indices.IndicesFullSync()).To(BeNil())
	})
}
