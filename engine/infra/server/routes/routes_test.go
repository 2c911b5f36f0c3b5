package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutes(t *testing.T) {
	t.Run("Should mount every endpoint under the API base", func(t *testing.T) {
		assert.Equal(t, "/api", Base())
		assert.Equal(t, "/api/chat", Chat())
		assert.Equal(t, "/api/chat/welcome", ChatWelcome())
		assert.Equal(t, "/api/knowledge", Knowledge())
		assert.Equal(t, "/api/vapi-outbound-call", VapiOutboundCall())
		assert.Equal(t, "/api/leads", Leads())
		assert.Equal(t, "/api/newsletter", Newsletter())
		assert.Equal(t, "/api/analytics/events", AnalyticsEvents())
		assert.Equal(t, "/api/health", Health())
	})
}
