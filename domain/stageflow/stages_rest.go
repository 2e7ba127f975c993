package stageflow

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	PathStages = "/v1/project-stages"
)

func RegisterStagesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathStages, middleWares...)
	g.GET("", handleQueryStages)
}

func handleQueryStages(c *gin.Context) {
	records, err := QueryStagesFunc()
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}
