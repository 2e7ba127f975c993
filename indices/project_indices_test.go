package indices_test

import (
	"errors"
	"testing"

	"pms/domain/project"
	"pms/es"
	"pms/indices"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestIndexProjects(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should index every project document", func(t *testing.T) {
		indexed := map[types.ID]interface{}{}
		es.IndexFunc = func(index string, id types.ID, doc interface{}) error {
			Expect(index).To(Equal(indices.ProjectIndexName))
			indexed[id] = doc
			return nil
		}
		defer func() {
			es.IndexFunc = es.Index
		}()

		Expect(indices.IndexProjects(
			project.Project{ID: 1, Title: "flood control", ProjectCode: "BDG-2026-1"},
			project.Project{ID: 2, Title: "irrigation", ProjectCode: "BDG-2026-2"},
		)).To(BeNil())
		Expect(len(indexed)).To(Equal(2))
		Expect(indexed[1].(indices.ProjectDocument).Title).To(Equal("flood control"))
	})

	t.Run("should collect per-document failures", func(t *testing.T) {
		es.IndexFunc = func(index string, id types.ID, doc interface{}) error {
			if id == 2 {
				return errors.New("error on index document")
			}
			return nil
		}
		defer func() {
			es.IndexFunc = es.Index
		}()

		err := indices.IndexProjects(project.Project{ID: 1}, project.Project{ID: 2})
		Expect(err).ToNot(BeNil())
		batchErr, ok := err.(indices.BatchActionError)
		Expect(ok).To(BeTrue())
		Expect(len(batchErr)).To(Equal(1))
		Expect(batchErr[2]).ToNot(BeNil())
	})
}

func TestDeleteProjectDocument(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should delete by document id", func(t *testing.T) {
		deleted := []types.ID{}
		es.DeleteDocFunc = func(index string, id types.ID) error {
			Expect(index).To(Equal(indices.ProjectIndexName))
			deleted = append(deleted, id)
			return nil
		}
		defer func() {
			es.DeleteDocFunc = es.DeleteDoc
		}()

		Expect(indices.DeleteProjectDocument(100)).To(BeNil())
		Expect(deleted).To(Equal([]types.ID{100}))
	})
}
