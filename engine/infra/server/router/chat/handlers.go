package chatrouter

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/chat"
	"github.com/pharens/pharens-ai/engine/infra/server/appstate"
	"github.com/pharens/pharens-ai/pkg/logger"
)

// reply handles POST /api/chat. It answers 200 in every case; a body that
// cannot be decoded gets the default canned reply.
func reply(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Malformed chat request", "error", err)
		req = chat.Request{}
	}
	state, err := appstate.GetState(c)
	if err != nil {
		log.Error("Chat handler has no application state", "error", err)
		c.JSON(http.StatusOK, chat.Response{Response: chat.Fallback(req.Message)})
		return
	}
	c.JSON(http.StatusOK, state.Chat.Reply(ctx, req))
}

const maxThrottledBody = 64 << 10

// LimitReached answers a throttled chat request with status 200 and the
// canned reply for its message.
func LimitReached(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxThrottledBody)
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		req = chat.Request{}
	}
	c.JSON(http.StatusOK, chat.Response{Response: chat.Fallback(req.Message)})
}

// welcome handles GET /api/chat/welcome.
func welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": chat.Welcome(time.Now())})
}

func Register(api *gin.RouterGroup) {
	g := api.Group("/chat")
	g.POST("", reply)
	g.GET("/welcome", welcome)
}
