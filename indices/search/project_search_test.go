package search_test

import (
	"context"
	"errors"
	"testing"

	"pms/bizerror"
	"pms/es"
	"pms/indices"
	"pms/indices/search"
	"pms/testinfra"

	. "github.com/onsi/gomega"
)

func TestSearchProjects(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should require a session", func(t *testing.T) {
		_, err := search.SearchProjects(context.Background(), search.ProjectSearchQuery{}, nil)
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
	})

	t.Run("should build keyword and stage filters and decode hits", func(t *testing.T) {
		var captured interface{}
		es.SearchFunc = func(ctx context.Context, index string, query interface{}) (*es.ESSearchResult, error) {
			Expect(index).To(Equal(indices.ProjectIndexName))
			captured = query
			return &es.ESSearchResult{Hits: es.ESSearchHits{Hits: []es.ESSearchHit{
				{Id: "1", Source: es.Source(`{"id":"1","title":"flood control","project_code":"BDG-2026-1"}`)},
				{Id: "2", Source: es.Source(`{"id":"2","title":"flood mapping","project_code":"BDG-2026-2"}`)},
			}}}, nil
		}
		defer func() {
			es.SearchFunc = es.Search
		}()

		sec := testinfra.BuildSecCtx(10)
		found, err := search.SearchProjects(context.Background(),
			search.ProjectSearchQuery{Keyword: "flood", StageID: 3}, sec)
		Expect(err).To(BeNil())
		Expect(len(found)).To(Equal(2))
		Expect(found[0].Title).To(Equal("flood control"))
		Expect(found[1].ProjectCode).To(Equal("BDG-2026-2"))

		body := captured.(es.H)
		filters := body["query"].(es.H)["bool"].(es.H)["filter"].([]es.H)
		Expect(len(filters)).To(Equal(3)) // keyword, stage, unarchived
		Expect(filters[0]["multi_match"].(es.H)["query"]).To(Equal("flood"))
	})

	t.Run("should skip the archive filter when archived projects are included", func(t *testing.T) {
		var captured interface{}
		es.SearchFunc = func(ctx context.Context, index string, query interface{}) (*es.ESSearchResult, error) {
			captured = query
			return &es.ESSearchResult{}, nil
		}
		defer func() {
			es.SearchFunc = es.Search
		}()

		sec := testinfra.BuildSecCtx(10)
		found, err := search.SearchProjects(context.Background(),
			search.ProjectSearchQuery{IncludeArchived: true}, sec)
		Expect(err).To(BeNil())
		Expect(len(found)).To(BeZero())

		filters := captured.(es.H)["query"].(es.H)["bool"].(es.H)["filter"].([]es.H)
		Expect(len(filters)).To(BeZero())
	})

	t.Run("should propagate search errors", func(t *testing.T) {
		es.SearchFunc = func(ctx context.Context, index string, query interface{}) (*es.ESSearchResult, error) {
			return nil, errors.New("error on search")
		}
		defer func() {
			es.SearchFunc = es.Search
		}()

		_, err := search.SearchProjects(context.Background(), search.ProjectSearchQuery{}, testinfra.BuildSecCtx(10))
		Expect(err).ToNot(BeNil())
	})
}
