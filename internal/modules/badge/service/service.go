package service

import (
	"context"
	"log"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/internal/modules/badge/dto"
	"anoa.com/ecotrack/internal/modules/badge/repository"
	"github.com/google/uuid"
)

type BadgeService interface {
	Catalog(ctx context.Context, userID uuid.UUID) (*dto.CatalogResponse, error)
	MyBadges(ctx context.Context, userID uuid.UUID) ([]dto.EarnedBadge, error)
	SeedDefinitions(ctx context.Context) error
}

type badgeService struct {
	repo  repository.BadgeRepository
	rules []engine.BadgeRule
}

func NewBadgeService(repo repository.BadgeRepository, rules []engine.BadgeRule) BadgeService {
	return &badgeService{repo: repo, rules: rules}
}

func (s *badgeService) Catalog(ctx context.Context, userID uuid.UUID) (*dto.CatalogResponse, error) {
	totals, err := s.repo.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}

	awards, err := s.repo.ListAwards(ctx, userID)
	if err != nil {
		return nil, err
	}
	awarded := make(map[string]bool, len(awards))
	for _, a := range awards {
		awarded[a.BadgeID] = true
	}

	rules, err := s.activeRules(ctx)
	if err != nil {
		return nil, err
	}

	statuses := engine.BadgeProgress(rules, totals, awarded)
	earned := 0
	for _, st := range statuses {
		if st.Earned {
			earned++
		}
	}

	return &dto.CatalogResponse{
		Badges:      statuses,
		EarnedCount: earned,
		Total:       len(statuses),
	}, nil
}

func (s *badgeService) MyBadges(ctx context.Context, userID uuid.UUID) ([]dto.EarnedBadge, error) {
	awards, err := s.repo.ListAwards(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.EarnedBadge, 0, len(awards))
	for _, a := range awards {
		item := dto.EarnedBadge{ID: a.BadgeID, EarnedAt: a.EarnedAt}
		if a.Badge != nil {
			item.Name = a.Badge.Name
			item.Description = a.Badge.Description
			item.Icon = a.Badge.Icon
			item.Rarity = a.Badge.Rarity
		} else if rule, ok := engine.FindRule(s.rules, a.BadgeID); ok {
			item.Name = rule.Name
			item.Description = rule.Description
			item.Icon = rule.Icon
			item.Rarity = rule.Rarity
		}
		out = append(out, item)
	}
	return out, nil
}

// activeRules prefers the persisted definitions so deactivated badges drop out of the catalog.
func (s *badgeService) activeRules(ctx context.Context) ([]engine.BadgeRule, error) {
	defs, err := s.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return s.rules, nil
	}
	rules := make([]engine.BadgeRule, 0, len(defs))
	for _, d := range defs {
		rules = append(rules, engine.RuleFromDefinition(d))
	}
	return rules, nil
}

// SeedDefinitions persists the rule table so awards can reference it.
func (s *badgeService) SeedDefinitions(ctx context.Context) error {
	defs := make([]entity.BadgeDefinition, 0, len(s.rules))
	for _, r := range s.rules {
		defs = append(defs, r.Definition())
	}
	if err := s.repo.SeedDefinitions(ctx, defs); err != nil {
		return err
	}
	log.Printf("✅ Seeded %d badge definitions", len(defs))
	return nil
}
