package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/internal/modules/challenge/dto"
	"anoa.com/ecotrack/pkg/apperror"
	"github.com/google/uuid"
)

var now = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC) // Thursday

type fakeRepo struct {
	challenges  []entity.Challenge
	memberships []entity.ChallengeMembership
	badges      map[string]bool
}

func (f *fakeRepo) Create(ctx context.Context, c *entity.Challenge) error {
	c.ID = uuid.New()
	f.challenges = append(f.challenges, *c)
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Challenge, error) {
	for _, c := range f.challenges {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeRepo) Update(ctx context.Context, c *entity.Challenge) error {
	for i := range f.challenges {
		if f.challenges[i].ID == c.ID {
			f.challenges[i] = *c
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (f *fakeRepo) HasCompletedMembership(ctx context.Context, challengeID uuid.UUID) (bool, error) {
	for _, m := range f.memberships {
		if m.ChallengeID == challengeID && m.IsCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListActive(ctx context.Context, at time.Time) ([]entity.Challenge, error) {
	var out []entity.Challenge
	for _, c := range f.challenges {
		if c.IsActive && engine.InWindow(&c, at) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListMemberships(ctx context.Context, userID uuid.UUID) ([]entity.ChallengeMembership, error) {
	var out []entity.ChallengeMembership
	for _, m := range f.memberships {
		if m.UserID == userID {
			c, _ := f.FindByID(ctx, m.ChallengeID)
			m.Challenge = c
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) MembershipsFor(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]entity.ChallengeMembership, error) {
	out := map[uuid.UUID]entity.ChallengeMembership{}
	for _, m := range f.memberships {
		if m.UserID == userID {
			out[m.ChallengeID] = m
		}
	}
	return out, nil
}

func (f *fakeRepo) ExistsForPeriod(ctx context.Context, period entity.ChallengePeriod, start time.Time) (bool, error) {
	for _, c := range f.challenges {
		if c.Period == period && c.StartDate.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) BadgeExists(ctx context.Context, id string) (bool, error) {
	return f.badges[id], nil
}

type fakeJoiner struct {
	result *engine.JoinResult
	err    error
}

func (f *fakeJoiner) JoinChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*engine.JoinResult, error) {
	return f.result, f.err
}

func (f *fakeJoiner) Location() *time.Location { return time.UTC }
func (f *fakeJoiner) Now() time.Time           { return now }

type fakeNotifier struct{ calls int }

func (f *fakeNotifier) NotifyChallengeJoined(ctx context.Context, userID uuid.UUID, result *engine.JoinResult) {
	f.calls++
}

type fakeLeaderboard struct{ calls int }

func (f *fakeLeaderboard) Invalidate(ctx context.Context) error {
	f.calls++
	return nil
}

func weekly(name string, target int) entity.Challenge {
	c := engine.Recurring(entity.PeriodWeekly, now, time.UTC)
	c.ID = uuid.New()
	c.Name = name
	c.TargetValue = target
	return c
}

func TestListActiveShowsMembership(t *testing.T) {
	userID := uuid.New()
	joined := weekly("joined", 10)
	open := weekly("open", 10)
	past := weekly("past", 10)
	past.StartDate = past.StartDate.AddDate(0, 0, -7)
	past.EndDate = past.EndDate.AddDate(0, 0, -7)

	repo := &fakeRepo{
		challenges:  []entity.Challenge{joined, open, past},
		memberships: []entity.ChallengeMembership{{UserID: userID, ChallengeID: joined.ID, Progress: 15, JoinedAt: now}},
	}
	svc := NewChallengeService(repo, &fakeJoiner{}, &fakeNotifier{}, &fakeLeaderboard{})

	list, err := svc.ListActive(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d challenges, want 2", len(list))
	}
	for _, c := range list {
		switch c.Name {
		case "joined":
			if !c.Joined || c.Progress != 10 || c.Percent != 100 || c.State != "active" {
				t.Errorf("joined = %+v", c)
			}
		case "open":
			if c.Joined || c.State != "not_joined" {
				t.Errorf("open = %+v", c)
			}
		}
		if c.DaysLeft != 4 {
			t.Errorf("%s DaysLeft = %d, want 4", c.Name, c.DaysLeft)
		}
	}
}

func TestMyChallengesSplitsByState(t *testing.T) {
	userID := uuid.New()
	active := weekly("active", 10)
	done := weekly("done", 10)
	old := weekly("old", 10)
	old.StartDate = old.StartDate.AddDate(0, 0, -7)
	old.EndDate = old.EndDate.AddDate(0, 0, -7)
	completedAt := now

	repo := &fakeRepo{
		challenges: []entity.Challenge{active, done, old},
		memberships: []entity.ChallengeMembership{
			{UserID: userID, ChallengeID: active.ID, Progress: 3},
			{UserID: userID, ChallengeID: done.ID, Progress: 10, IsCompleted: true, CompletedAt: &completedAt},
			{UserID: userID, ChallengeID: old.ID, Progress: 4},
		},
	}
	svc := NewChallengeService(repo, &fakeJoiner{}, &fakeNotifier{}, &fakeLeaderboard{})

	res, err := svc.MyChallenges(context.Background(), userID)
	if err != nil {
		t.Fatalf("MyChallenges() error = %v", err)
	}
	if len(res.Active) != 1 || len(res.Completed) != 1 || len(res.Expired) != 1 {
		t.Fatalf("active=%d completed=%d expired=%d", len(res.Active), len(res.Completed), len(res.Expired))
	}
	if res.Expired[0].Name != "old" || res.Active[0].Percent != 30 {
		t.Errorf("unexpected split: %+v", res)
	}
}

func TestJoinHooksOnlyOnImmediateCompletion(t *testing.T) {
	notifier := &fakeNotifier{}
	leaderboard := &fakeLeaderboard{}
	joiner := &fakeJoiner{result: &engine.JoinResult{Membership: &entity.ChallengeMembership{}}}
	svc := NewChallengeService(&fakeRepo{}, joiner, notifier, leaderboard)

	if _, err := svc.Join(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatal(err)
	}
	if notifier.calls != 0 || leaderboard.calls != 0 {
		t.Fatalf("hooks ran for a plain join")
	}

	joiner.result = &engine.JoinResult{Completed: &engine.CompletedChallenge{Name: "x", RewardPoints: 100}}
	if _, err := svc.Join(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatal(err)
	}
	if notifier.calls != 1 || leaderboard.calls != 1 {
		t.Fatalf("notify=%d invalidate=%d, want 1 each", notifier.calls, leaderboard.calls)
	}

	joiner.err = apperror.ErrValidation
	if _, err := svc.Join(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateChallenge(t *testing.T) {
	repo := &fakeRepo{badges: map[string]bool{"eco_champion": true}}
	svc := NewChallengeService(repo, &fakeJoiner{}, &fakeNotifier{}, &fakeLeaderboard{})
	start, end := engine.PeriodWindow(entity.PeriodWeekly, now, time.UTC)

	valid := dto.CreateChallengeRequest{
		Name:            "<i>Bike week</i>",
		Period:          "weekly",
		TargetDimension: "activities",
		TargetValue:     5,
		RewardPoints:    50,
		StartDate:       start,
		EndDate:         end,
	}

	cat := "Transport"
	badge := "eco_champion"
	req := valid
	req.TargetCategory = &cat
	req.RewardBadgeID = &badge

	res, err := svc.CreateChallenge(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateChallenge() error = %v", err)
	}
	if res.Name != "Bike week" || res.TargetCategory == nil || *res.TargetCategory != entity.CategoryTransport {
		t.Errorf("res = %+v", res)
	}

	unknown := "nope"
	req = valid
	req.RewardBadgeID = &unknown
	if _, err := svc.CreateChallenge(context.Background(), req); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("unknown badge: err = %v", err)
	}

	req = valid
	req.EndDate = req.StartDate
	if _, err := svc.CreateChallenge(context.Background(), req); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty window: err = %v", err)
	}
}

func TestEnsureRecurringIsIdempotent(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewChallengeService(repo, &fakeJoiner{}, &fakeNotifier{}, &fakeLeaderboard{})

	created, err := svc.EnsureRecurring(context.Background(), now)
	if err != nil || created != 2 {
		t.Fatalf("first run: created=%d err=%v", created, err)
	}
	created, err = svc.EnsureRecurring(context.Background(), now.Add(2*time.Hour))
	if err != nil || created != 0 {
		t.Fatalf("second run: created=%d err=%v", created, err)
	}
	created, err = svc.EnsureRecurring(context.Background(), now.AddDate(0, 0, 7))
	if err != nil || created != 1 {
		t.Fatalf("next week: created=%d err=%v", created, err)
	}
}

func TestUpdateChallengeRevalidates(t *testing.T) {
	ch := weekly("Bike week", 5)
	repo := &fakeRepo{challenges: []entity.Challenge{ch}, badges: map[string]bool{"eco_champion": true}}
	svc := NewChallengeService(repo, &fakeJoiner{}, &fakeNotifier{}, &fakeLeaderboard{})
	ctx := context.Background()

	name := " <b>Bike month</b> "
	target := 8
	cat := "Transport"
	badge := "eco_champion"
	res, err := svc.UpdateChallenge(ctx, ch.ID, dto.UpdateChallengeRequest{
		Name:           &name,
		TargetValue:    &target,
		TargetCategory: &cat,
		RewardBadgeID:  &badge,
	})
	if err != nil {
		t.Fatalf("UpdateChallenge() error = %v", err)
	}
	if res.Name != "Bike month" || res.TargetValue != 8 || res.TargetCategory == nil || *res.TargetCategory != entity.CategoryTransport {
		t.Errorf("res = %+v", res)
	}
	if res.RewardBadgeID == nil || *res.RewardBadgeID != "eco_champion" {
		t.Errorf("reward badge = %v", res.RewardBadgeID)
	}

	empty := ""
	res, err = svc.UpdateChallenge(ctx, ch.ID, dto.UpdateChallengeRequest{TargetCategory: &empty, RewardBadgeID: &empty})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if res.TargetCategory != nil || res.RewardBadgeID != nil {
		t.Errorf("fields not cleared: %+v", res)
	}

	before := repo.challenges[0]
	end := ch.StartDate
	bogus := "sleeping"
	unknown := "nope"
	invalid := []dto.UpdateChallengeRequest{
		{EndDate: &end},
		{TargetCategory: &bogus},
		{RewardBadgeID: &unknown},
		{Name: &empty},
	}
	for i, req := range invalid {
		if _, err := svc.UpdateChallenge(ctx, ch.ID, req); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("case %d: err = %v, want validation", i, err)
		}
	}
	if after := repo.challenges[0]; after.Name != before.Name || !after.EndDate.Equal(before.EndDate) || after.TargetCategory != nil {
		t.Errorf("rejected update was persisted: %+v", after)
	}

	if _, err := svc.UpdateChallenge(ctx, uuid.New(), dto.UpdateChallengeRequest{Name: &name}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}
}

func TestUpdateChallengeLocksGoalAfterCompletion(t *testing.T) {
	ch := weekly("Three a week", 3)
	completedAt := now
	repo := &fakeRepo{
		challenges: []entity.Challenge{ch},
		memberships: []entity.ChallengeMembership{
			{UserID: uuid.New(), ChallengeID: ch.ID, Progress: 3, IsCompleted: true, CompletedAt: &completedAt},
		},
	}
	svc := NewChallengeService(repo, &fakeJoiner{}, &fakeNotifier{}, &fakeLeaderboard{})
	ctx := context.Background()

	target := 10
	dimension := string(entity.TargetActivities)
	cat := "waste"
	later := ch.EndDate.AddDate(0, 0, 1)
	earlier := ch.StartDate.Add(-time.Hour)
	locked := []dto.UpdateChallengeRequest{
		{TargetValue: &target},
		{TargetDimension: &dimension},
		{TargetCategory: &cat},
		{EndDate: &later},
		{StartDate: &earlier},
	}
	for i, req := range locked {
		if _, err := svc.UpdateChallenge(ctx, ch.ID, req); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("case %d: err = %v, want validation", i, err)
		}
	}
	if got := repo.challenges[0]; got.TargetValue != 3 || !got.EndDate.Equal(ch.EndDate) {
		t.Fatalf("locked fields changed: %+v", got)
	}

	// Cosmetic fields and an unchanged target stay editable.
	name := "Three a week, renamed"
	same := 3
	reward := 75
	res, err := svc.UpdateChallenge(ctx, ch.ID, dto.UpdateChallengeRequest{Name: &name, TargetValue: &same, RewardPoints: &reward})
	if err != nil {
		t.Fatalf("cosmetic update: %v", err)
	}
	if res.Name != name || res.RewardPoints != 75 || res.TargetValue != 3 {
		t.Errorf("res = %+v", res)
	}
}

func TestDeactivateChallenge(t *testing.T) {
	userID := uuid.New()
	ch := weekly("Three a week", 3)
	repo := &fakeRepo{challenges: []entity.Challenge{ch}}
	svc := NewChallengeService(repo, &fakeJoiner{}, &fakeNotifier{}, &fakeLeaderboard{})
	ctx := context.Background()

	if err := svc.DeactivateChallenge(ctx, ch.ID); err != nil {
		t.Fatalf("DeactivateChallenge() error = %v", err)
	}
	if repo.challenges[0].IsActive {
		t.Fatal("challenge still active")
	}
	list, err := svc.ListActive(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("deactivated challenge still listed: %+v", list)
	}

	if err := svc.DeactivateChallenge(ctx, ch.ID); err != nil {
		t.Errorf("second deactivate: %v", err)
	}
	if err := svc.DeactivateChallenge(ctx, uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}

	active := true
	res, err := svc.UpdateChallenge(ctx, ch.ID, dto.UpdateChallengeRequest{IsActive: &active})
	if err != nil || !res.IsActive {
		t.Fatalf("reactivate: res=%+v err=%v", res, err)
	}
}
