package audit

import (
	"net/http"

	"pms/common"
	"pms/session"

	"github.com/gin-gonic/gin"
)

const PathAuditRecords = "/v1/audit-records"

func RegisterAuditRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAuditRecords, middleWares...)
	g.GET("", handleQueryAuditRecords)
	g.GET("export", handleExportAuditRecords)
}

func handleQueryAuditRecords(c *gin.Context) {
	query := AuditQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := QueryRecordsFunc(&query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleExportAuditRecords(c *gin.Context) {
	query := AuditQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="audit-records.csv"`)
	if err := ExportCSV(c.Writer, &query, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
}
