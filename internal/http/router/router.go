package router

import (
	"github.com/gin-gonic/gin"

	"taskdeck.app/botlink/internal/bot/slack"
	"taskdeck.app/botlink/internal/http/handler"
	"taskdeck.app/botlink/internal/http/handler/webhook"
	"taskdeck.app/botlink/internal/http/middleware"
	"taskdeck.app/botlink/internal/queue"
	"taskdeck.app/botlink/internal/service"
)

type RouterConfig struct {
	TaskdeckURL      string
	ErrorRedirectURL string
}

func SetupRoutes(router *gin.Engine, services *service.Services, verifier *slack.Verifier, producer queue.Producer, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	linkHandler := handler.NewLinkHandler(services.Link(), cfg.ErrorRedirectURL)
	commandHandler := handler.NewCommandHandler(services.Authorize(), services.LinkTokens(), services.Provider(), cfg.TaskdeckURL)
	eventHandler := webhook.NewSlackEventHandler(services.EventDeduper(), producer)
	LinkRouter(router.Group("/link"), linkHandler, commandHandler, eventHandler, verifier)

	v1 := router.Group("/api/v1")
	{
		notificationHandler := handler.NewNotificationHandler(services.Notifications())
		NotificationRouter(v1.Group("/notifications"), notificationHandler)

		v1.POST("/integrations/slack/associate", linkHandler.AssociateAccount)
	}
}

// LinkRouter wires the Slack-facing surface. The OAuth redirect endpoints are
// hit by browsers and carry no signature; everything Slack POSTs directly is
// behind signature verification.
func LinkRouter(router *gin.RouterGroup, link *handler.LinkHandler, commands *handler.CommandHandler, events *webhook.SlackEventHandler, verifier *slack.Verifier) {
	router.GET("/install", link.Install)
	router.GET("/callback", link.Callback)

	signed := router.Group("", middleware.VerifySlackSignature(verifier))
	{
		signed.POST("/events", events.Events)
		signed.POST("/interactions", events.Interactions)
		signed.POST("/commands/new-task", commands.NewTask)
		signed.POST("/commands/link-with-taskdeck", commands.LinkWithTaskdeck)
	}
}
