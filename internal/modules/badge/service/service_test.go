package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"github.com/google/uuid"
)

type fakeRepo struct {
	seeded []entity.BadgeDefinition
	awards []entity.BadgeAward
	totals engine.Totals
}

func (f *fakeRepo) SeedDefinitions(ctx context.Context, defs []entity.BadgeDefinition) error {
	f.seeded = defs
	return nil
}

func (f *fakeRepo) ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error) {
	return f.seeded, nil
}

func (f *fakeRepo) ListAwards(ctx context.Context, userID uuid.UUID) ([]entity.BadgeAward, error) {
	return f.awards, nil
}

func (f *fakeRepo) CountAwards(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(f.awards)), nil
}

func (f *fakeRepo) Totals(ctx context.Context, userID uuid.UUID) (engine.Totals, error) {
	return f.totals, nil
}

func TestCatalog(t *testing.T) {
	repo := &fakeRepo{
		totals: engine.Totals{Points: 250, Activities: 12, CurrentStreak: 2},
		awards: []entity.BadgeAward{{BadgeID: "points_100"}, {BadgeID: "activities_10"}},
	}
	svc := NewBadgeService(repo, engine.DefaultBadgeRules)

	catalog, err := svc.Catalog(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	if catalog.Total != len(engine.DefaultBadgeRules) || catalog.EarnedCount != 2 {
		t.Fatalf("total=%d earned=%d", catalog.Total, catalog.EarnedCount)
	}

	byID := map[string]engine.BadgeStatus{}
	for _, b := range catalog.Badges {
		byID[b.ID] = b
	}
	if got := byID["points_500"].Progress; got != 50 {
		t.Errorf("points_500 progress = %d, want 50", got)
	}
	if got := byID["streak_3"].Progress; got != 67 {
		t.Errorf("streak_3 progress = %d, want 67", got)
	}
	if !byID["points_100"].Earned || byID["points_100"].Progress != 100 {
		t.Errorf("points_100 = %+v", byID["points_100"])
	}
}

func TestMyBadgesFallsBackToRules(t *testing.T) {
	earned := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{awards: []entity.BadgeAward{
		{BadgeID: "streak_7", EarnedAt: earned},
		{BadgeID: "custom", EarnedAt: earned, Badge: &entity.BadgeDefinition{ID: "custom", Name: "Custom"}},
	}}
	svc := NewBadgeService(repo, engine.DefaultBadgeRules)

	badges, err := svc.MyBadges(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("MyBadges() error = %v", err)
	}
	if badges[0].Name != "Persistent" || badges[1].Name != "Custom" {
		t.Errorf("names = %q, %q", badges[0].Name, badges[1].Name)
	}
}

func TestSeedDefinitions(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewBadgeService(repo, engine.DefaultBadgeRules)

	if err := svc.SeedDefinitions(context.Background()); err != nil {
		t.Fatalf("SeedDefinitions() error = %v", err)
	}
	if len(repo.seeded) != len(engine.DefaultBadgeRules) {
		t.Fatalf("seeded %d definitions", len(repo.seeded))
	}
	for _, d := range repo.seeded {
		if !d.IsActive {
			t.Errorf("%s seeded inactive", d.ID)
		}
	}
}

func TestCatalogUsesPersistedDefinitions(t *testing.T) {
	repo := &fakeRepo{seeded: []entity.BadgeDefinition{
		engine.DefaultBadgeRules[0].Definition(),
	}}
	svc := NewBadgeService(repo, engine.DefaultBadgeRules)

	catalog, err := svc.Catalog(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	if catalog.Total != 1 || catalog.Badges[0].ID != engine.DefaultBadgeRules[0].ID {
		t.Errorf("catalog = %+v", catalog)
	}
}
