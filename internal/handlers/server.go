// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/service"
)

// API exposes the scoring service over JSON/HTTP.
type API struct {
	Service *service.Service
}

// NewAPI wraps svc.
func NewAPI(svc *service.Service) *API {
	return &API{Service: svc}
}

// Routes registers every endpoint on mux. Callers wrap mux with the auth and
// logging middleware.
func (a *API) Routes(mux *http.ServeMux) {
	// rule catalog
	mux.HandleFunc("GET /rulesets", a.ListRuleSets)
	mux.HandleFunc("POST /rulesets", a.CreateRuleSet)
	mux.HandleFunc("GET /rulesets/active", a.ActiveRuleSet)
	mux.HandleFunc("GET /rulesets/{id}", a.GetRuleSet)
	mux.HandleFunc("PATCH /rulesets/{id}", a.RenameRuleSet)
	mux.HandleFunc("POST /rulesets/{id}/activate", a.ActivateRuleSet)
	mux.HandleFunc("POST /rulesets/{id}/deactivate", a.DeactivateRuleSet)
	mux.HandleFunc("POST /rulesets/{id}/items", a.AddRuleItem)
	mux.HandleFunc("PATCH /rule-items/{id}", a.SetRuleItemDelta)
	mux.HandleFunc("DELETE /rule-items/{id}", a.DeleteRuleItem)

	// games
	mux.HandleFunc("GET /games", a.ListGames)
	mux.HandleFunc("POST /games", a.CreateGame)
	mux.HandleFunc("GET /games/{id}", a.GetGame)
	mux.HandleFunc("POST /games/{id}/seats", a.SeatPlayer)
	mux.HandleFunc("POST /games/{id}/transition", a.TransitionGame)
	mux.HandleFunc("PUT /games/{id}/outcome", a.CorrectOutcome)
	mux.HandleFunc("POST /games/{id}/recompute", a.RecomputeScores)
	mux.HandleFunc("GET /games/{id}/extra-points", a.ListExtraPoints)
	mux.HandleFunc("GET /games/{id}/audit", a.ListAudit)
	mux.HandleFunc("PATCH /seats/{id}", a.UpdateSeat)
	mux.HandleFunc("POST /seats/{id}/correction", a.CorrectSeat)

	// manual adjustments
	mux.HandleFunc("POST /seats/{id}/extra-points", a.ApplyExtraPoints)
	mux.HandleFunc("PATCH /extra-points/{id}", a.UpdateExtraPoints)
	mux.HandleFunc("DELETE /extra-points/{id}", a.DeleteExtraPoints)
}

// Handler returns a mux with every route registered.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.Routes(mux)
	return mux
}

var (
	organizerOnly = []models.UserRole{}
	gameMasters   = []models.UserRole{models.UserGM}
)
