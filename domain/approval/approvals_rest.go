package approval

import (
	"net/http"

	"pms/common"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const PathApprovals = "/v1/approvals"

func RegisterApprovalsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathApprovals, middleWares...)

	g.GET("", handleQueryApprovals)
	g.GET("pending", handleQueryPendingApprovals)
	g.GET("approved", handleQueryApprovedApprovals)
	g.GET(":id/step-records", handleListStepRecords)

	g.POST(":id/approve", handleApprove)
	g.POST(":id/return-for-revision", handleReturnForRevision)
	// reject is kept as an alias of return-for-revision: a rejected project
	// goes back to its proponent instead of dying.
	g.POST(":id/reject", handleReturnForRevision)
	g.POST(":id/complete", handleComplete)
	g.POST(":id/bootstrap", handleBootstrapStatus)
}

func handleQueryApprovals(c *gin.Context) {
	query := ApprovalQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	approvals, err := QueryApprovalsFunc(&query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, approvals)
}

func handleQueryPendingApprovals(c *gin.Context) {
	approvals, err := QueryPendingApprovalsFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, approvals)
}

func handleQueryApprovedApprovals(c *gin.Context) {
	approvals, err := QueryApprovedApprovals(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, approvals)
}

func handleListStepRecords(c *gin.Context) {
	id := parseApprovalId(c)
	records, err := ListStepRecordsFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleApprove(c *gin.Context) {
	id := parseApprovalId(c)

	decision := ApprovalDecision{}
	if err := c.ShouldBindBodyWith(&decision, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	approval, err := ApproveFunc(id, &decision, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, approval)
}

func handleReturnForRevision(c *gin.Context) {
	id := parseApprovalId(c)

	returning := ApprovalReturning{}
	if err := c.ShouldBindBodyWith(&returning, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	approval, err := ReturnForRevisionFunc(id, &returning, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, approval)
}

func handleComplete(c *gin.Context) {
	id := parseApprovalId(c)
	approval, err := CompleteFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, approval)
}

func handleBootstrapStatus(c *gin.Context) {
	id := parseApprovalId(c)
	approval, err := BootstrapStatusFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, approval)
}

func parseApprovalId(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	return id
}
