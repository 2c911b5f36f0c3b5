package leadsrouter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/infra/server/router"
	"github.com/pharens/pharens-ai/engine/leads"
)

const (
	msgInvalidBody       = "Invalid request body"
	msgNotConfigured     = "Lead capture is not configured"
	msgAlreadySubscribed = "Email is already subscribed"
)

type newsletterRequest struct {
	Email string `json:"email"`
}

// captureLead handles POST /api/leads.
func captureLead(c *gin.Context) {
	state, ok := router.GetAppState(c, router.ShapeFailure)
	if !ok {
		return
	}
	var in leads.Lead
	if err := c.ShouldBindJSON(&in); err != nil {
		router.RespondWithError(c, router.NewFailure(http.StatusBadRequest, msgInvalidBody, err))
		return
	}
	id, err := state.Leads.CaptureLead(c.Request.Context(), in)
	if err != nil {
		respondLeadError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
}

// subscribe handles POST /api/newsletter.
func subscribe(c *gin.Context) {
	state, ok := router.GetAppState(c, router.ShapeFailure)
	if !ok {
		return
	}
	var in newsletterRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		router.RespondWithError(c, router.NewFailure(http.StatusBadRequest, msgInvalidBody, err))
		return
	}
	id, err := state.Leads.Subscribe(c.Request.Context(), in.Email)
	if err != nil {
		respondLeadError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
}

func respondLeadError(c *gin.Context, err error) {
	var verr *leads.ValidationError
	switch {
	case errors.As(err, &verr):
		router.RespondWithError(c, router.NewFailure(http.StatusBadRequest, verr.Message, nil))
	case errors.Is(err, leads.ErrNotConfigured):
		router.RespondWithError(c, router.NewFailure(http.StatusServiceUnavailable, msgNotConfigured, err))
	case errors.Is(err, leads.ErrAlreadySubscribed):
		router.RespondWithError(c, router.NewFailure(http.StatusConflict, msgAlreadySubscribed, err))
	default:
		router.RespondWithError(c, router.NewFailure(http.StatusInternalServerError, "Internal server error", err))
	}
}

func Register(api *gin.RouterGroup) {
	api.POST("/leads", captureLead)
	api.POST("/newsletter", subscribe)
}
