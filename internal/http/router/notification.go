package router

import (
	"github.com/gin-gonic/gin"

	"taskdeck.app/botlink/internal/http/handler"
)

func NotificationRouter(router *gin.RouterGroup, handler *handler.NotificationHandler) {
	router.POST("", handler.Send)
}
