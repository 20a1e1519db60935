package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-live/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

type queueEncounterRequest struct {
	CourtID *int `json:"court_id"`
}

// Queue ставит встречу в очередь, опционально на конкретный корт.
// POST /encounters/{encounterID}/queue
func (h *GameHandler) Queue(w http.ResponseWriter, r *http.Request) {
	encounterID, err := idParam(r, "encounterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	var req queueEncounterRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	encounter, err := h.gameService.QueueEncounter(r.Context(), encounterID, actor, req.CourtID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encounter, nil)
}

// Start переводит встречу в игру и занимает назначенный корт.
// POST /encounters/{encounterID}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	encounterID, err := idParam(r, "encounterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	encounter, err := h.gameService.StartEncounter(r.Context(), encounterID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encounter, nil)
}

type submitScoreRequest struct {
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}

// SubmitScore фиксирует счёт от одного из участников; игра переходит
// в ожидание подтверждения соперником.
// POST /games/{gameID}/score
func (h *GameHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
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
	var req submitScoreRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.SubmitScore(r.Context(), gameID, actor, req.Score1, req.Score2)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game, nil)
}

type verifyScoreRequest struct {
	Confirm bool   `json:"confirm"`
	Reason  string `json:"reason,omitempty"`
}

// VerifyScore — подтверждение или спор от второй стороны.
// POST /games/{gameID}/verify
func (h *GameHandler) VerifyScore(w http.ResponseWriter, r *http.Request) {
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
	var req verifyScoreRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.VerifyScore(r.Context(), gameID, actor, req.Confirm, req.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game, nil)
}

type overrideRequest struct {
	Score1 int     `json:"score1"`
	Score2 int     `json:"score2"`
	Note   *string `json:"note,omitempty"`
	Finish bool    `json:"finish"`
}

// Override — организаторская правка счёта. finish=true завершает игру
// и снимает спор, finish=false только правит цифры.
// POST /games/{gameID}/override
func (h *GameHandler) Override(w http.ResponseWriter, r *http.Request) {
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
	var req overrideRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.AdminOverride(r.Context(), gameID, actor, req.Score1, req.Score2, req.Note, req.Finish)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game, nil)
}
