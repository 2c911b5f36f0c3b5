package knowledgerouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/infra/server/router"
)

const (
	actionPopulate   = "populate"
	msgInvalidAction = "Invalid action"
	msgFailed        = "Failed to process knowledge base request"
)

type actionRequest struct {
	Action string `json:"action"`
}

type populateResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SuccessCount int    `json:"successCount"`
	FailCount    int    `json:"failCount"`
}

// runAction handles POST /api/knowledge.
func runAction(c *gin.Context) {
	state, ok := router.GetAppState(c, router.ShapeError)
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, router.NewRequestError(http.StatusInternalServerError, msgFailed, err))
		return
	}
	if req.Action != actionPopulate {
		router.RespondWithError(c, router.NewRequestError(http.StatusBadRequest, msgInvalidAction, nil))
		return
	}
	summary, err := state.Knowledge.Populate(c.Request.Context())
	if err != nil {
		router.RespondWithError(c, router.NewRequestError(http.StatusInternalServerError, msgFailed, err))
		return
	}
	c.JSON(http.StatusOK, populateResponse{
		Success:      true,
		Message:      summary.Message(),
		SuccessCount: summary.SuccessCount,
		FailCount:    summary.FailCount,
	})
}

func Register(api *gin.RouterGroup) {
	api.POST("/knowledge", runAction)
}
