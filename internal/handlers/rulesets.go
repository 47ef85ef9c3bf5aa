// internal/handlers/rulesets.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/mafiastats/internal/rules"
	"github.com/shopspring/decimal"
)

type createRuleSetRequest struct {
	Name     string           `json:"name"`
	IsActive bool             `json:"is_active"`
	Items    []rules.ItemSpec `json:"items"`
}

func (a *API) ListRuleSets(w http.ResponseWriter, r *http.Request) {
	sets, err := a.Service.ListRuleSets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (a *API) CreateRuleSet(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, organizerOnly...); !ok {
		return
	}
	var req createRuleSetRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	rs, err := a.Service.CreateRuleSet(r.Context(), req.Name, req.IsActive, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rs)
}

func (a *API) ActiveRuleSet(w http.ResponseWriter, r *http.Request) {
	rs, err := a.Service.ActiveRuleSet(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (a *API) GetRuleSet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	rs, err := a.Service.GetRuleSet(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (a *API) RenameRuleSet(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, organizerOnly...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	rs, err := a.Service.RenameRuleSet(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (a *API) ActivateRuleSet(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, organizerOnly...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := a.Service.ActivateRuleSet(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) DeactivateRuleSet(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, organizerOnly...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := a.Service.DeactivateRuleSet(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) AddRuleItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, organizerOnly...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var spec rules.ItemSpec
	if err := decodeBody(r, &spec); err != nil {
		badRequest(w, err)
		return
	}
	it, err := a.Service.AddRuleItem(r.Context(), id, spec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (a *API) SetRuleItemDelta(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, organizerOnly...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var req struct {
		Delta decimal.Decimal `json:"delta"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := a.Service.SetRuleItemDelta(r.Context(), id, req.Delta); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) DeleteRuleItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, organizerOnly...); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := a.Service.DeleteRuleItem(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
