package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pms/bizerror"
	"pms/domain/project"
	"pms/es"
	"pms/indices"
	"pms/session"

	"github.com/fundwit/go-commons/types"
)

var (
	SearchProjectsFunc = SearchProjects
)

type ProjectSearchQuery struct {
	Keyword         string   `form:"q"`
	StageID         types.ID `form:"stageId"`
	IncludeArchived bool     `form:"includeArchived"`
}

func SearchProjects(ctx context.Context, q ProjectSearchQuery, sec *session.Context) ([]project.Project, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	filters := make([]es.H, 0, 4)
	if q.Keyword != "" {
		filters = append(filters, es.H{"multi_match": es.H{
			"query":    q.Keyword,
			"fields":   []string{"title", "description", "project_code", "location_address"},
			"operator": "AND",
		}})
	}
	if !q.StageID.IsZero() {
		filters = append(filters, es.H{"term": es.H{"current_stage_id": q.StageID}})
	}
	if !q.IncludeArchived {
		filters = append(filters, es.H{"term": es.H{"is_archived": false}})
	}

	root := es.H{"bool": es.H{"filter": filters}}
	sorts := []es.H{{"id": es.H{"order": "asc"}}}
	r, err := es.SearchFunc(ctx, indices.ProjectIndexName, es.H{"size": 10000, "query": root, "sort": sorts})
	if err != nil {
		return nil, err
	}

	projects := make([]project.Project, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		p := project.Project{}
		if err := json.NewDecoder(strings.NewReader(string(hit.Source))).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode project document: %s", string(hit.Source))
		}
		projects = append(projects, p)
	}
	return projects, nil
}
