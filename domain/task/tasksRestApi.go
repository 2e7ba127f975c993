package task

import (
	"net/http"

	"pms/common"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const PathTasks = "/v1/tasks"

func RegisterTasksRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathTasks, middleWares...)

	g.POST("", handleCreateTask)
	g.GET("", handleQueryTasks)
	g.PUT(":id", handleUpdateTask)
	g.DELETE(":id", handleDeleteTask)
}

func handleCreateTask(c *gin.Context) {
	creation := TaskCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateTaskFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryTasks(c *gin.Context) {
	query := TaskQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	tasks, err := QueryTasksFunc(&query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, tasks)
}

func handleUpdateTask(c *gin.Context) {
	id := parseTaskId(c)
	updating := TaskUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := UpdateTaskFunc(id, &updating, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteTask(c *gin.Context) {
	id := parseTaskId(c)
	if err := DeleteTaskFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func parseTaskId(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	return id
}
