package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/EcommerceGo/storefront/internal/analytics"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

// AnalyticsHandler accepts events the SPA tracks on its own.
type AnalyticsHandler struct {
	logger *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{logger: logger}
}

// EventRequest is one client-side event. Type shadows the embedded event's
// so it can be validated.
type EventRequest struct {
	Type string `json:"type" validate:"oneof=page_view event ecommerce performance error"`
	analytics.Event
}

// TrackEventsRequest is the JSON body of POST /api/v1/analytics/events.
type TrackEventsRequest struct {
	Events []EventRequest `json:"events" validate:"required,min=1,max=100,dive"`
}

// TrackEventsResponse reports how many events were buffered.
type TrackEventsResponse struct {
	Accepted int `json:"accepted"`
}

// TrackEvents handles POST /api/v1/analytics/events
func (h *AnalyticsHandler) TrackEvents(w http.ResponseWriter, r *http.Request) {
	var req TrackEventsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	tracker := sessionFrom(r.Context()).Tracker()
	for _, e := range req.Events {
		ev := e.Event
		ev.Type = e.Type
		tracker.Track(r.Context(), ev)
	}

	httputil.WriteData(w, http.StatusAccepted, TrackEventsResponse{Accepted: len(req.Events)})
}
