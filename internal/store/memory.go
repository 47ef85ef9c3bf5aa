// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/shopspring/decimal"
)

// Memory is an in-process Store. Units of work are serialized by a single
// mutex and run against a copy of the data that is swapped in on success.
type Memory struct {
	mu   sync.Mutex
	data *memData

	// Now is used for created_at style timestamps.
	Now func() time.Time
}

type memData struct {
	seq       int64
	ruleSets  map[int64]models.RuleSet
	ruleItems map[int64]models.RuleItem
	games     map[int64]models.Game
	players   map[int64]models.GamePlayer
	extras    map[int64]models.ExtraPoints
	audits    []models.GameAudit
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: &memData{
			ruleSets:  make(map[int64]models.RuleSet),
			ruleItems: make(map[int64]models.RuleItem),
			games:     make(map[int64]models.Game),
			players:   make(map[int64]models.GamePlayer),
			extras:    make(map[int64]models.ExtraPoints),
		},
		Now: time.Now,
	}
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.data.clone()
	if err := fn(&memTx{d: work, now: m.Now}); err != nil {
		return err
	}
	m.data = work
	return nil
}

func (d *memData) clone() *memData {
	c := &memData{
		seq:       d.seq,
		ruleSets:  make(map[int64]models.RuleSet, len(d.ruleSets)),
		ruleItems: make(map[int64]models.RuleItem, len(d.ruleItems)),
		games:     make(map[int64]models.Game, len(d.games)),
		players:   make(map[int64]models.GamePlayer, len(d.players)),
		extras:    make(map[int64]models.ExtraPoints, len(d.extras)),
		audits:    append([]models.GameAudit(nil), d.audits...),
	}
	for k, v := range d.ruleSets {
		c.ruleSets[k] = v
	}
	for k, v := range d.ruleItems {
		c.ruleItems[k] = v
	}
	for k, v := range d.games {
		c.games[k] = v
	}
	for k, v := range d.players {
		c.players[k] = v
	}
	for k, v := range d.extras {
		c.extras[k] = v
	}
	return c
}

func (d *memData) nextID() int64 {
	d.seq++
	return d.seq
}

type memTx struct {
	d   *memData
	now func() time.Time
}

// rule sets

func (t *memTx) InsertRuleSet(_ context.Context, rs *models.RuleSet) error {
	for _, other := range t.d.ruleSets {
		if other.Name == rs.Name {
			return fmt.Errorf("rule set %q: %w", rs.Name, ErrDuplicateName)
		}
	}
	rs.ID = t.d.nextID()
	rs.IsActive = false
	rs.CreatedAt = t.now().UTC()
	stored := *rs
	stored.Items = nil
	t.d.ruleSets[rs.ID] = stored
	return nil
}

func (t *memTx) GetRuleSet(_ context.Context, id int64) (*models.RuleSet, error) {
	rs, ok := t.d.ruleSets[id]
	if !ok {
		return nil, fmt.Errorf("rule set %d: %w", id, ErrNotFound)
	}
	return &rs, nil
}

func (t *memTx) ListRuleSets(_ context.Context) ([]models.RuleSet, error) {
	out := make([]models.RuleSet, 0, len(t.d.ruleSets))
	for _, rs := range t.d.ruleSets {
		out = append(out, rs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) RenameRuleSet(_ context.Context, id int64, name string) error {
	rs, ok := t.d.ruleSets[id]
	if !ok {
		return fmt.Errorf("rule set %d: %w", id, ErrNotFound)
	}
	for _, other := range t.d.ruleSets {
		if other.ID != id && other.Name == name {
			return fmt.Errorf("rule set %q: %w", name, ErrDuplicateName)
		}
	}
	rs.Name = name
	t.d.ruleSets[id] = rs
	return nil
}

func (t *memTx) SwapActiveRuleSet(_ context.Context, id int64) error {
	if _, ok := t.d.ruleSets[id]; !ok {
		return fmt.Errorf("rule set %d: %w", id, ErrNotFound)
	}
	for k, rs := range t.d.ruleSets {
		rs.IsActive = k == id
		t.d.ruleSets[k] = rs
	}
	return nil
}

func (t *memTx) DeactivateRuleSet(_ context.Context, id int64) error {
	rs, ok := t.d.ruleSets[id]
	if !ok {
		return fmt.Errorf("rule set %d: %w", id, ErrNotFound)
	}
	rs.IsActive = false
	t.d.ruleSets[id] = rs
	return nil
}

func (t *memTx) ActiveRuleSet(_ context.Context) (*models.RuleSet, error) {
	for _, rs := range t.d.ruleSets {
		if rs.IsActive {
			return &rs, nil
		}
	}
	return nil, fmt.Errorf("active rule set: %w", ErrNotFound)
}

func (t *memTx) RuleSetPinned(_ context.Context, ruleSetID int64) (bool, error) {
	if _, ok := t.d.ruleSets[ruleSetID]; !ok {
		return false, fmt.Errorf("rule set %d: %w", ruleSetID, ErrNotFound)
	}
	for _, g := range t.d.games {
		if g.RuleSetID != nil && *g.RuleSetID == ruleSetID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) GetRuleItem(_ context.Context, id int64) (*models.RuleItem, error) {
	it, ok := t.d.ruleItems[id]
	if !ok {
		return nil, fmt.Errorf("rule item %d: %w", id, ErrNotFound)
	}
	return &it, nil
}

func (t *memTx) ListRuleItems(_ context.Context, ruleSetID int64) ([]models.RuleItem, error) {
	var out []models.RuleItem
	for _, it := range t.d.ruleItems {
		if it.RuleSetID == ruleSetID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) InsertRuleItem(_ context.Context, it *models.RuleItem) error {
	if _, ok := t.d.ruleSets[it.RuleSetID]; !ok {
		return fmt.Errorf("rule set %d: %w", it.RuleSetID, ErrNotFound)
	}
	for _, other := range t.d.ruleItems {
		if other.RuleSetID == it.RuleSetID && other.Key() == it.Key() {
			return fmt.Errorf("%s/%s: %w", it.Condition, it.Key().Role, ErrDuplicateRuleKey)
		}
	}
	it.ID = t.d.nextID()
	t.d.ruleItems[it.ID] = *it
	return nil
}

func (t *memTx) UpdateRuleItemDelta(_ context.Context, id int64, delta decimal.Decimal) error {
	it, ok := t.d.ruleItems[id]
	if !ok {
		return fmt.Errorf("rule item %d: %w", id, ErrNotFound)
	}
	it.Delta = delta
	t.d.ruleItems[id] = it
	return nil
}

func (t *memTx) DeleteRuleItem(_ context.Context, id int64) error {
	if _, ok := t.d.ruleItems[id]; !ok {
		return fmt.Errorf("rule item %d: %w", id, ErrNotFound)
	}
	delete(t.d.ruleItems, id)
	return nil
}

// games

func (t *memTx) InsertGame(_ context.Context, g *models.Game) error {
	g.ID = t.d.nextID()
	t.d.games[g.ID] = cloneGame(*g)
	return nil
}

func (t *memTx) GetGame(_ context.Context, id int64) (*models.Game, error) {
	g, ok := t.d.games[id]
	if !ok {
		return nil, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	g = cloneGame(g)
	return &g, nil
}

// LockGame is GetGame: units of work are already serialized.
func (t *memTx) LockGame(ctx context.Context, id int64) (*models.Game, error) {
	return t.GetGame(ctx, id)
}

func (t *memTx) ListGames(_ context.Context, offset, limit int) ([]models.Game, error) {
	out := make([]models.Game, 0, len(t.d.games))
	for _, g := range t.d.games {
		out = append(out, cloneGame(g))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if offset >= len(out) {
		return []models.Game{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) UpdateGame(_ context.Context, g *models.Game) error {
	if _, ok := t.d.games[g.ID]; !ok {
		return fmt.Errorf("game %d: %w", g.ID, ErrNotFound)
	}
	t.d.games[g.ID] = cloneGame(*g)
	return nil
}

func (t *memTx) ListGamePlayers(_ context.Context, gameID int64) ([]models.GamePlayer, error) {
	var out []models.GamePlayer
	for _, gp := range t.d.players {
		if gp.GameID == gameID {
			out = append(out, gp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNo < out[j].SeatNo })
	return out, nil
}

func (t *memTx) GetGamePlayer(_ context.Context, id int64) (*models.GamePlayer, error) {
	gp, ok := t.d.players[id]
	if !ok {
		return nil, fmt.Errorf("game player %d: %w", id, ErrNotFound)
	}
	return &gp, nil
}

func (t *memTx) InsertGamePlayer(_ context.Context, gp *models.GamePlayer) error {
	if _, ok := t.d.games[gp.GameID]; !ok {
		return fmt.Errorf("game %d: %w", gp.GameID, ErrNotFound)
	}
	for _, other := range t.d.players {
		if other.GameID != gp.GameID {
			continue
		}
		if other.SeatNo == gp.SeatNo || other.PlayerID == gp.PlayerID {
			return fmt.Errorf("game %d seat %d: %w", gp.GameID, gp.SeatNo, ErrSeatTaken)
		}
	}
	gp.ID = t.d.nextID()
	t.d.players[gp.ID] = *gp
	return nil
}

func (t *memTx) UpdateGamePlayer(_ context.Context, gp *models.GamePlayer) error {
	if _, ok := t.d.players[gp.ID]; !ok {
		return fmt.Errorf("game player %d: %w", gp.ID, ErrNotFound)
	}
	t.d.players[gp.ID] = *gp
	return nil
}

// extra points

func (t *memTx) InsertExtraPoints(_ context.Context, e *models.ExtraPoints) error {
	if _, ok := t.d.players[e.GamePlayerID]; !ok {
		return fmt.Errorf("game player %d: %w", e.GamePlayerID, ErrNotFound)
	}
	e.ID = t.d.nextID()
	e.CreatedAt = t.now().UTC()
	t.d.extras[e.ID] = *e
	return nil
}

func (t *memTx) GetExtraPoints(_ context.Context, id int64) (*models.ExtraPoints, error) {
	e, ok := t.d.extras[id]
	if !ok {
		return nil, fmt.Errorf("extra points %d: %w", id, ErrNotFound)
	}
	return &e, nil
}

func (t *memTx) UpdateExtraPoints(_ context.Context, e *models.ExtraPoints) error {
	if _, ok := t.d.extras[e.ID]; !ok {
		return fmt.Errorf("extra points %d: %w", e.ID, ErrNotFound)
	}
	t.d.extras[e.ID] = *e
	return nil
}

func (t *memTx) DeleteExtraPoints(_ context.Context, id int64) error {
	if _, ok := t.d.extras[id]; !ok {
		return fmt.Errorf("extra points %d: %w", id, ErrNotFound)
	}
	delete(t.d.extras, id)
	return nil
}

func (t *memTx) ListExtraPoints(_ context.Context, gameID int64) ([]models.ExtraPoints, error) {
	var out []models.ExtraPoints
	for _, e := range t.d.extras {
		if gp, ok := t.d.players[e.GamePlayerID]; ok && gp.GameID == gameID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// audit

func (t *memTx) InsertAudit(_ context.Context, a *models.GameAudit) error {
	a.ID = t.d.nextID()
	if a.TS.IsZero() {
		a.TS = t.now().UTC()
	}
	t.d.audits = append(t.d.audits, *a)
	return nil
}

func (t *memTx) ListAudit(_ context.Context, gameID int64) ([]models.GameAudit, error) {
	var out []models.GameAudit
	for _, a := range t.d.audits {
		if a.GameID == gameID {
			out = append(out, a)
		}
	}
	return out, nil
}

func cloneGame(g models.Game) models.Game {
	g.Players = nil
	if g.Outcome != nil {
		o := *g.Outcome
		o.Awards = nil
		for _, aw := range g.Outcome.Awards {
			o.Awards = append(o.Awards, models.Award{
				Condition: aw.Condition,
				Seats:     append([]int(nil), aw.Seats...),
			})
		}
		g.Outcome = &o
	}
	return g
}
