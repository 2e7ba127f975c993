package indices

import (
	"fmt"

	"pms/domain/project"
	"pms/es"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	ProjectIndexName = "projects"
)

type ProjectDocument struct {
	project.Project
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexProjects(projects ...project.Project) error {
	docs := make([]ProjectDocument, 0, len(projects))
	for _, p := range projects {
		docs = append(docs, ProjectDocument{Project: p})
	}

	if err := saveProjectDocuments(docs); err != nil {
		return err
	}
	return nil
}

func saveProjectDocuments(docs []ProjectDocument) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(ProjectIndexName, doc.ID, doc); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index project %d %s %s\n", doc.ID, doc.ProjectCode, err)
		} else {
			logrus.Infof("index project %d %s successfully\n", doc.ID, doc.ProjectCode)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func DeleteProjectDocument(id types.ID) error {
	return es.DeleteDocFunc(ProjectIndexName, id)
}
