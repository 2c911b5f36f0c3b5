// Package analytics accepts the site's client-side tracking events and turns
// them into counters.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pharens/pharens-ai/engine/infra/monitoring/metrics"
	"github.com/pharens/pharens-ai/pkg/logger"
)

const (
	PageView           = "page_view"
	FormSubmission     = "form_submission"
	ButtonClick        = "button_click"
	ChatbotInteraction = "chatbot_interaction"
	ServiceInterest    = "service_interest"
	ScrollDepth        = "scroll_depth"
	OutboundLinkClick  = "outbound_link_click"
)

var (
	ErrUnknownEvent     = errors.New("unknown analytics event")
	ErrInvalidParameter = errors.New("invalid analytics event parameters")
)

// Event is one tracking call from the browser.
type Event struct {
	Name       string         `json:"event"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// eventDef describes which parameter may become a metric label. Only parameters
// with a closed value set are used, so label cardinality stays bounded.
type eventDef struct {
	label   string
	allowed []string
}

var catalogue = map[string]eventDef{
	PageView:           {},
	FormSubmission:     {label: "success", allowed: []string{"true", "false"}},
	ButtonClick:        {},
	ChatbotInteraction: {label: "action", allowed: []string{"open", "close", "send_message"}},
	ServiceInterest:    {},
	ScrollDepth:        {label: "percentage", allowed: []string{"25", "50", "75", "100"}},
	OutboundLinkClick:  {},
}

// Known reports whether name is in the event catalogue.
func Known(name string) bool {
	_, ok := catalogue[name]
	return ok
}

type Recorder struct {
	events metric.Int64Counter
}

// NewRecorder registers the event counter on mp, or on the global provider
// when mp is nil.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	counter, err := mp.Meter("pharens.analytics").Int64Counter(
		metrics.MetricNameWithSubsystem("analytics", "events_total"),
		metric.WithDescription("Client analytics events by name"),
	)
	if err != nil {
		return nil, fmt.Errorf("analytics: create counter: %w", err)
	}
	return &Recorder{events: counter}, nil
}

// Record validates ev and counts it.
func (r *Recorder) Record(ctx context.Context, ev Event) error {
	sp, ok := catalogue[ev.Name]
	if !ok {
		return ErrUnknownEvent
	}
	attrs := []attribute.KeyValue{attribute.String("event", ev.Name)}
	if sp.label != "" {
		if raw, present := ev.Parameters[sp.label]; present {
			v := paramString(raw)
			if !slices.Contains(sp.allowed, v) {
				return fmt.Errorf("%w: %s=%q", ErrInvalidParameter, sp.label, v)
			}
			attrs = append(attrs, attribute.String(sp.label, v))
		}
	}
	r.events.Add(ctx, 1, metric.WithAttributes(attrs...))
	logger.FromContext(ctx).Debug("Analytics event", "event", ev.Name, "parameters", ev.Parameters)
	return nil
}

// paramString renders JSON scalars the way they were written.
func paramString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}
