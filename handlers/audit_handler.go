package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-live/services"
)

type AuditHandler struct {
	auditService services.AuditService
}

func NewAuditHandler(auditService services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// History возвращает журнал изменений счёта игры, новые записи первыми.
// GET /games/{gameID}/history
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	entries, err := h.auditService.ListGameHistory(r.Context(), gameID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"entries": entries}, nil)
}

// Export выгружает снапшот журнала игры в object storage.
// POST /games/{gameID}/history/export
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	export, err := h.auditService.ExportGameHistory(r.Context(), gameID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, export, nil)
}
