package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/standup/internal/http/handler"
)

func SlackRouter(rg *gin.RouterGroup, h *handler.SlackHandler) {
	rg.POST("/commands", h.Command)
	rg.POST("/events", h.Event)
	rg.POST("/interactions", h.Interaction)
}
