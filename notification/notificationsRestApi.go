package notification

import (
	"net/http"
	"strconv"

	"pms/common"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

const PathNotifications = "/v1/notifications"

func RegisterNotificationsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathNotifications, middleWares...)
	g.GET("", handleQueryMyNotifications)
	g.POST(":id/read", handleMarkRead)
}

func handleQueryMyNotifications(c *gin.Context) {
	onlyUnread, _ := strconv.ParseBool(c.Query("unread"))
	notifications, err := QueryMyNotifications(onlyUnread, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, notifications)
}

func handleMarkRead(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := MarkReadFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
