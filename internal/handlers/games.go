// internal/handlers/games.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/jason-s-yu/mafiastats/internal/game"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/service"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type createGameRequest struct {
	PlayersQty int `json:"players_qty"`
}

type seatRequest struct {
	PlayerID int64       `json:"player_id"`
	SeatNo   int         `json:"seat_no"`
	Role     models.Role `json:"role"`
}

type transitionRequest struct {
	State   models.GameState `json:"state"`
	Outcome *models.Outcome  `json:"outcome"`
}

type extraPointsRequest struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason"`
}

// scoresResponse reports seat totals keyed by seat number.
type scoresResponse struct {
	GameID int64                   `json:"game_id"`
	Totals map[int]decimal.Decimal `json:"totals"`
}

func (a *API) ListGames(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		badRequest(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit == 0 {
		badRequest(w, errors.New("invalid limit"))
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	games, err := a.Service.ListGames(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (a *API) CreateGame(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, gameMasters...)
	if !ok {
		return
	}
	var req createGameRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	g, err := a.Service.CreateGame(r.Context(), req.PlayersQty, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (a *API) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	g, err := a.Service.GetGame(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) SeatPlayer(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, gameMasters...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var req seatRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	gp, err := a.Service.SeatPlayer(r.Context(), id, req.PlayerID, req.SeatNo, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, gp)
}

func (a *API) UpdateSeat(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, gameMasters...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var u game.SeatUpdate
	if err := decodeBody(r, &u); err != nil {
		badRequest(w, err)
		return
	}
	gp, err := a.Service.UpdateSeat(r.Context(), id, u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gp)
}

func (a *API) CorrectSeat(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, organizerOnly...)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var u game.SeatUpdate
	if err := decodeBody(r, &u); err != nil {
		badRequest(w, err)
		return
	}
	gp, err := a.Service.CorrectSeat(r.Context(), id, u, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gp)
}

func (a *API) TransitionGame(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, gameMasters...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	g, err := a.Service.TransitionGame(r.Context(), id, req.State, req.Outcome)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) CorrectOutcome(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, organizerOnly...)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var outcome models.Outcome
	if err := decodeBody(r, &outcome); err != nil {
		badRequest(w, err)
		return
	}
	g, err := a.Service.CorrectOutcome(r.Context(), id, &outcome, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) RecomputeScores(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, organizerOnly...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	totals, err := a.Service.RecomputeScores(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoresResponse{GameID: id, Totals: totals})
}

func (a *API) ListAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	rows, err := a.Service.ListAudit(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.GameAudit{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) ListExtraPoints(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	extras, err := a.Service.ListExtraPoints(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if extras == nil {
		extras = []models.ExtraPoints{}
	}
	writeJSON(w, http.StatusOK, extras)
}

func (a *API) ApplyExtraPoints(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, gameMasters...)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var req extraPointsRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	e, err := a.Service.ApplyExtraPoints(r.Context(), id, req.Delta, req.Reason, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (a *API) UpdateExtraPoints(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, gameMasters...)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var u service.ExtraPointsUpdate
	if err := decodeBody(r, &u); err != nil {
		badRequest(w, err)
		return
	}
	e, err := a.Service.UpdateExtraPoints(r.Context(), id, u, actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) DeleteExtraPoints(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, gameMasters...)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := a.Service.DeleteExtraPoints(r.Context(), id, actor.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
