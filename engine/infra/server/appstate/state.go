// Package appstate carries the request-handling dependencies through gin.
package appstate

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/analytics"
	"github.com/pharens/pharens-ai/engine/chat"
	"github.com/pharens/pharens-ai/engine/knowledge/seed"
	"github.com/pharens/pharens-ai/engine/leads"
	"github.com/pharens/pharens-ai/engine/telephony"
)

const stateKey = "app_state"

type ChatResponder interface {
	Reply(ctx context.Context, req chat.Request) chat.Response
}

type KnowledgePopulator interface {
	Populate(ctx context.Context) (seed.Summary, error)
}

type CallPlacer interface {
	Configured() bool
	StartCall(ctx context.Context, req telephony.CallRequest) (telephony.CallResult, error)
}

type LeadCapturer interface {
	CaptureLead(ctx context.Context, lead leads.Lead) (string, error)
	Subscribe(ctx context.Context, email string) (string, error)
}

type EventRecorder interface {
	Record(ctx context.Context, ev analytics.Event) error
}

// HealthChecker is implemented by optional backends reported on /api/health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type State struct {
	Chat      ChatResponder
	Knowledge KnowledgePopulator
	Calls     CallPlacer
	Leads     LeadCapturer
	Analytics EventRecorder
	Checks    map[string]HealthChecker
	Version   string
}

// Validate rejects a state missing a collaborator every route needs.
func (s *State) Validate() error {
	switch {
	case s.Chat == nil:
		return errors.New("appstate: chat responder is required")
	case s.Knowledge == nil:
		return errors.New("appstate: knowledge populator is required")
	case s.Calls == nil:
		return errors.New("appstate: call placer is required")
	case s.Leads == nil:
		return errors.New("appstate: lead capturer is required")
	case s.Analytics == nil:
		return errors.New("appstate: event recorder is required")
	}
	return nil
}

func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(stateKey, state)
		c.Next()
	}
}

// GetState returns the state installed by StateMiddleware.
func GetState(c *gin.Context) (*State, error) {
	v, ok := c.Get(stateKey)
	if !ok {
		return nil, errors.New("appstate: state not found in context")
	}
	state, ok := v.(*State)
	if !ok || state == nil {
		return nil, errors.New("appstate: invalid state in context")
	}
	return state, nil
}
