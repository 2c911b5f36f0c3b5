package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/infra/server/appstate"
)

// GetAppState fetches the state or writes a 500 and returns false.
func GetAppState(c *gin.Context, shape Shape) (*appstate.State, bool) {
	state, err := appstate.GetState(c)
	if err != nil {
		RespondWithError(c, &RequestError{
			StatusCode: http.StatusInternalServerError,
			Reason:     msgInternal,
			Shape:      shape,
			Err:        err,
		})
		return nil, false
	}
	return state, true
}
