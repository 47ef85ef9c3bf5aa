// internal/service/rulesets.go
package service

import (
	"context"

	"github.com/jason-s-yu/mafiastats/internal/models"
	"github.com/jason-s-yu/mafiastats/internal/rules"
	"github.com/jason-s-yu/mafiastats/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CreateRuleSet stores a rule set with its items. When isActive is set, it
// replaces the active rule set in the same unit of work.
func (s *Service) CreateRuleSet(ctx context.Context, name string, isActive bool, items []rules.ItemSpec) (*models.RuleSet, error) {
	var rs *models.RuleSet
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		rs, err = rules.Create(ctx, tx, name, isActive, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"rule_set_id": rs.ID,
		"name":        rs.Name,
		"active":      rs.IsActive,
		"items":       len(rs.Items),
	}).Info("rule set created")
	return rs, nil
}

// ActivateRuleSet makes id the only active rule set.
func (s *Service) ActivateRuleSet(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		return rules.Activate(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.log.WithField("rule_set_id", id).Info("rule set activated")
	return nil
}

// DeactivateRuleSet clears the active flag of id.
func (s *Service) DeactivateRuleSet(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		return rules.Deactivate(ctx, tx, id)
	})
}

// RenameRuleSet changes the name of id.
func (s *Service) RenameRuleSet(ctx context.Context, id int64, name string) (*models.RuleSet, error) {
	var rs *models.RuleSet
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := rules.Rename(ctx, tx, id, name); err != nil {
			return err
		}
		var err error
		rs, err = rules.Get(ctx, tx, id)
		return err
	})
	return rs, err
}

// GetRuleSet returns a rule set with its items.
func (s *Service) GetRuleSet(ctx context.Context, id int64) (*models.RuleSet, error) {
	var rs *models.RuleSet
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		rs, err = rules.Get(ctx, tx, id)
		return err
	})
	return rs, err
}

// ActiveRuleSet returns the active rule set or rules.ErrNoActiveRuleSet.
func (s *Service) ActiveRuleSet(ctx context.Context) (*models.RuleSet, error) {
	var rs *models.RuleSet
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		rs, err = rules.Active(ctx, tx)
		return err
	})
	return rs, err
}

// ListRuleSets returns every rule set with its items.
func (s *Service) ListRuleSets(ctx context.Context) ([]models.RuleSet, error) {
	var sets []models.RuleSet
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		sets, err = rules.List(ctx, tx)
		return err
	})
	return sets, err
}

// AddRuleItem adds an item to a rule set.
func (s *Service) AddRuleItem(ctx context.Context, ruleSetID int64, spec rules.ItemSpec) (*models.RuleItem, error) {
	var it *models.RuleItem
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		it, err = rules.AddItem(ctx, tx, ruleSetID, spec)
		return err
	})
	return it, err
}

// SetRuleItemDelta changes the delta of an item. Items of a rule set that
// finished games are scored against are frozen (rules.ErrRuleSetInUse).
func (s *Service) SetRuleItemDelta(ctx context.Context, itemID int64, delta decimal.Decimal) error {
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		return rules.SetItemDelta(ctx, tx, itemID, delta)
	})
}

// DeleteRuleItem removes an item.
func (s *Service) DeleteRuleItem(ctx context.Context, itemID int64) error {
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		return rules.DeleteItem(ctx, tx, itemID)
	})
}
