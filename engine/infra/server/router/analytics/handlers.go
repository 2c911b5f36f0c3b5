package analyticsrouter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/analytics"
	"github.com/pharens/pharens-ai/engine/infra/server/router"
)

// recordEvent handles POST /api/analytics/events.
func recordEvent(c *gin.Context) {
	state, ok := router.GetAppState(c, router.ShapeFailure)
	if !ok {
		return
	}
	var ev analytics.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		router.RespondWithError(c, router.NewFailure(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if err := state.Analytics.Record(c.Request.Context(), ev); err != nil {
		switch {
		case errors.Is(err, analytics.ErrUnknownEvent):
			router.RespondWithError(c, router.NewFailure(http.StatusBadRequest, "Unknown analytics event", err))
		case errors.Is(err, analytics.ErrInvalidParameter):
			router.RespondWithError(c, router.NewFailure(http.StatusBadRequest, "Invalid analytics event parameters", err))
		default:
			router.RespondWithError(c, router.NewFailure(http.StatusInternalServerError, "Internal server error", err))
		}
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

func Register(api *gin.RouterGroup) {
	api.POST("/analytics/events", recordEvent)
}
