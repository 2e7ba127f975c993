package project

import (
	"net/http"

	"pms/common"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const PathProjects = "/v1/projects"

func RegisterProjectsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProjects, middleWares...)

	g.POST("", handleCreateProject)
	g.GET("", handleQueryProjects)
	g.GET(":id", handleDetailProject)
	g.PUT(":id", handleUpdateProject)
	g.DELETE(":id", handleArchiveProject)

	g.GET(":id/stage-histories", handleListStageHistory)
	g.GET(":id/members", handleListMembers)
}

func handleCreateProject(c *gin.Context) {
	creation := ProjectCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	record, err := CreateProjectFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryProjects(c *gin.Context) {
	query := ProjectQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	projects, err := QueryProjectsFunc(&query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, projects)
}

func handleDetailProject(c *gin.Context) {
	id := parseProjectId(c)
	record, err := DetailProjectFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

// the body is bound twice: the typed struct carries parsed values, the raw map
// tells sent fields from omitted ones.
func handleUpdateProject(c *gin.Context) {
	id := parseProjectId(c)

	updating := ProjectUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	submitted := map[string]interface{}{}
	if err := c.ShouldBindBodyWith(&submitted, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	record, err := UpdateProjectFunc(id, &updating, submitted, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleArchiveProject(c *gin.Context) {
	id := parseProjectId(c)
	if err := ArchiveProjectFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleListStageHistory(c *gin.Context) {
	id := parseProjectId(c)
	histories, err := ListStageHistory(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, histories)
}

func handleListMembers(c *gin.Context) {
	id := parseProjectId(c)
	members, err := ListMembers(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, members)
}

func parseProjectId(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	return id
}
