package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-live/services"
)

type TimelineHandler struct {
	timelineService services.TimelineService
}

func NewTimelineHandler(timelineService services.TimelineService) *TimelineHandler {
	return &TimelineHandler{timelineService: timelineService}
}

// Public отдаёт опубликованный таймлайн события. До публикации — 403.
// GET /events/{eventID}/timeline
func (h *TimelineHandler) Public(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	timeline, err := h.timelineService.GetEventTimeline(r.Context(), eventID, false)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline, nil)
}

// Organizer отдаёт таймлайн без гейта публикации и без кэша.
// GET /events/{eventID}/timeline/draft
func (h *TimelineHandler) Organizer(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	timeline, err := h.timelineService.GetEventTimeline(r.Context(), eventID, true)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline, nil)
}
