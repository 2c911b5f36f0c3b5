package vapirouter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/infra/server/router"
	"github.com/pharens/pharens-ai/engine/telephony"
	"github.com/pharens/pharens-ai/pkg/logger"
	"github.com/pharens/pharens-ai/pkg/phone"
)

const (
	msgConfig        = "Server configuration error"
	msgInitiated     = "Call initiated successfully"
	msgInternal      = "Internal server error"
	msgPhoneRequired = "Phone number is required"
	msgPhoneInvalid  = "Please enter a valid phone number (e.g., 0602785621 or +27602785621)"
)

type callRequest struct {
	PhoneNumber  string         `json:"phoneNumber"`
	CustomerName string         `json:"customerName"`
	Metadata     map[string]any `json:"metadata"`
}

type callData struct {
	CallID  string `json:"callId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// startCall handles POST /api/vapi-outbound-call.
func startCall(c *gin.Context) {
	state, ok := router.GetAppState(c, router.ShapeFailure)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondWithError(c, router.NewFailure(http.StatusInternalServerError, msgInternal, err))
		return
	}
	number, err := phone.Normalize(req.PhoneNumber)
	if err != nil {
		router.RespondWithError(c, router.NewFailure(http.StatusBadRequest, phoneMessage(err), err))
		return
	}
	if !state.Calls.Configured() {
		router.RespondWithError(c, router.NewFailure(http.StatusInternalServerError, msgConfig, telephony.ErrNotConfigured))
		return
	}
	res, err := state.Calls.StartCall(ctx, telephony.CallRequest{
		PhoneNumber:  number,
		CustomerName: req.CustomerName,
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondCallError(c, err)
		return
	}
	logger.FromContext(ctx).Info("Outbound call initiated", "call_id", res.CallID, "status", res.Status)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    callData{CallID: res.CallID, Status: res.Status, Message: msgInitiated},
	})
}

func phoneMessage(err error) string {
	if errors.Is(err, phone.ErrRequired) {
		return msgPhoneRequired
	}
	return msgPhoneInvalid
}

func respondCallError(c *gin.Context, err error) {
	var perr *telephony.ProviderError
	switch {
	case errors.As(err, &perr):
		router.RespondWithError(c, router.NewFailure(perr.StatusCode, perr.Message, err))
	case errors.Is(err, telephony.ErrNotConfigured):
		router.RespondWithError(c, router.NewFailure(http.StatusInternalServerError, msgConfig, err))
	default:
		router.RespondWithError(c, router.NewFailure(http.StatusInternalServerError, msgInternal, err))
	}
}

func Register(api *gin.RouterGroup) {
	api.POST("/vapi-outbound-call", startCall)
}
