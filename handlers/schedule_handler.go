package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-live/services"
)

type ScheduleHandler struct {
	schedulingService services.SchedulingService
	validationService services.ValidationService
	publishService    services.PublishService
}

func NewScheduleHandler(
	schedulingService services.SchedulingService,
	validationService services.ValidationService,
	publishService services.PublishService,
) *ScheduleHandler {
	return &ScheduleHandler{
		schedulingService: schedulingService,
		validationService: validationService,
		publishService:    publishService,
	}
}

type bulkAssignRequest struct {
	Assignments []services.CourtAssignmentItem `json:"assignments"`
}

// BulkAssign применяет пакет назначений корт/время одной транзакцией.
// POST /events/{eventID}/schedule/assignments
func (h *ScheduleHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	var req bulkAssignRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	updated, err := h.schedulingService.BulkAssign(r.Context(), eventID, actor, req.Assignments)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"updated": updated}, nil)
}

type replaceBindingsRequest struct {
	Bindings []services.BindingInput `json:"bindings"`
}

// ReplaceBindings заменяет привязки дивизиона к группам кортов.
// PUT /divisions/{divisionID}/court-groups
func (h *ScheduleHandler) ReplaceBindings(w http.ResponseWriter, r *http.Request) {
	divisionID, err := idParam(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	var req replaceBindingsRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.schedulingService.ReplaceBindings(r.Context(), divisionID, actor, req.Bindings); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"bindings": len(req.Bindings)}, nil)
}

// AutoAssign запускает авторазмещение встреч дивизиона по привязанным кортам.
// POST /divisions/{divisionID}/schedule/auto-assign
func (h *ScheduleHandler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	divisionID, err := idParam(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	var params services.AutoAssignParams
	if err := readJSON(w, r, &params); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.schedulingService.AutoAssign(r.Context(), divisionID, actor, params)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}

// ClearAssignments снимает назначения корта и времени со всех
// неначавшихся встреч дивизиона.
// DELETE /divisions/{divisionID}/schedule/assignments
func (h *ScheduleHandler) ClearAssignments(w http.ResponseWriter, r *http.Request) {
	divisionID, err := idParam(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	cleared, err := h.schedulingService.ClearAssignments(r.Context(), divisionID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"cleared": cleared}, nil)
}

// Validate пересчитывает конфликты расписания события.
// POST /events/{eventID}/schedule/validate
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	result, err := h.validationService.ValidateAndStamp(r.Context(), eventID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}

// ValidationReport возвращает отчёт валидации без сохранения штампа.
// GET /events/{eventID}/schedule/validate
func (h *ScheduleHandler) ValidationReport(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.validationService.Validate(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}

type publishRequest struct {
	SkipValidation bool `json:"skip_validation,omitempty"`
}

// Publish делает расписание события публично видимым. При конфликтах
// возвращает 409 с полным отчётом валидации.
// POST /events/{eventID}/schedule/publish
func (h *ScheduleHandler) Publish(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	// Тело опционально: публикация без флагов — валидный запрос.
	var req publishRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	if err := h.publishService.Publish(r.Context(), eventID, actor, req.SkipValidation); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"published": true}, nil)
}

// Unpublish скрывает расписание события.
// DELETE /events/{eventID}/schedule/publish
func (h *ScheduleHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	eventID, err := idParam(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := h.publishService.Unpublish(r.Context(), eventID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"published": false}, nil)
}
