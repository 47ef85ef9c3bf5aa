// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jason-s-yu/mafiastats/internal/auth"
	"github.com/jason-s-yu/mafiastats/internal/game"
	"github.com/jason-s-yu/mafiastats/internal/middleware"
	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/rules"
	"github.com/jason-s-yu/mafiastats/internal/scoring"
	"github.com/jason-s-yu/mafiastats/internal/service"
	"github.com/jason-s-yu/mafiastats/internal/store"
	log "github.com/sirupsen/logrus"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Rule  int    `json:"rule,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

// decodeBody reads a JSON request body into v. An empty body is an error.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// writeError maps core error kinds to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var compErr *game.CompositionError
	switch {
	case errors.As(err, &compErr):
		status = http.StatusUnprocessableEntity
		body.Rule = compErr.Rule
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateName),
		errors.Is(err, store.ErrDuplicateRuleKey),
		errors.Is(err, store.ErrSeatTaken),
		errors.Is(err, rules.ErrRuleSetInUse),
		errors.Is(err, game.ErrIllegalTransition),
		errors.Is(err, game.ErrRosterClosed),
		errors.Is(err, service.ErrGameAborted),
		errors.Is(err, service.ErrNotFinished):
		status = http.StatusConflict
	case errors.Is(err, rules.ErrNoActiveRuleSet),
		errors.Is(err, game.ErrIncompleteRoster),
		errors.Is(err, scoring.ErrUnscorableOutcome),
		errors.Is(err, scoring.ErrInvalidOutcome):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, rules.ErrInvalidDelta),
		errors.Is(err, rules.ErrInvalidRuleItem),
		errors.Is(err, rules.ErrInvalidName),
		errors.Is(err, game.ErrInvalidPlayersQty),
		errors.Is(err, game.ErrInvalidSeat),
		errors.Is(err, service.ErrInvalidReason):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

// requireRole returns the caller when its role is one of allowed (organizers
// always pass) and writes 401/403 otherwise.
func requireRole(w http.ResponseWriter, r *http.Request, allowed ...models.UserRole) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing actor"})
		return models.Actor{}, false
	}
	if !auth.Can(actor.Role, allowed...) {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return models.Actor{}, false
	}
	return actor, true
}
