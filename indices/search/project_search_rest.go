package search

import (
	"net/http"

	"pms/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const PathProjectSearches = "/v1/project-searches"

func RegisterProjectSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProjectSearches, middleWares...)
	g.GET("", handleSearchProjects)
}

func handleSearchProjects(c *gin.Context) {
	query := ProjectSearchQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	projects, err := SearchProjectsFunc(c.Request.Context(), query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, projects)
}
