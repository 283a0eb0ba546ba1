package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/standup/internal/http/handler"
	"basegraph.app/standup/internal/http/middleware"
)

type RouterConfig struct {
	SigningSecret string
}

func SetupRoutes(router *gin.Engine, slackHandler *handler.SlackHandler, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	slack := router.Group("/slack")
	slack.Use(middleware.VerifySlackSignature(cfg.SigningSecret))
	SlackRouter(slack, slackHandler)
}
