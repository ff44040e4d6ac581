package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/internal/modules/challenge/dto"
	"anoa.com/ecotrack/internal/modules/challenge/repository"
	"anoa.com/ecotrack/pkg/apperror"
	"anoa.com/ecotrack/pkg/sanitizer"
	"github.com/google/uuid"
)

// Joiner runs the join transaction. *engine.Engine satisfies it.
type Joiner interface {
	JoinChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*engine.JoinResult, error)
	Location() *time.Location
	Now() time.Time
}

type JoinNotifier interface {
	NotifyChallengeJoined(ctx context.Context, userID uuid.UUID, result *engine.JoinResult)
}

type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

type ChallengeService interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]dto.ChallengeResponse, error)
	MyChallenges(ctx context.Context, userID uuid.UUID) (*dto.MyChallengesResponse, error)
	Join(ctx context.Context, userID, challengeID uuid.UUID) (*engine.JoinResult, error)
	CreateChallenge(ctx context.Context, req dto.CreateChallengeRequest) (*dto.ChallengeResponse, error)
	UpdateChallenge(ctx context.Context, id uuid.UUID, req dto.UpdateChallengeRequest) (*dto.ChallengeResponse, error)
	DeactivateChallenge(ctx context.Context, id uuid.UUID) error
	// EnsureRecurring creates the weekly and monthly challenges for the period
	// containing now when they do not exist yet. It returns how many were created.
	EnsureRecurring(ctx context.Context, now time.Time) (int, error)
}

type challengeService struct {
	repo        repository.ChallengeRepository
	engine      Joiner
	notifier    JoinNotifier
	leaderboard LeaderboardInvalidator
}

func NewChallengeService(repo repository.ChallengeRepository, joiner Joiner, notifier JoinNotifier, leaderboard LeaderboardInvalidator) ChallengeService {
	return &challengeService{
		repo:        repo,
		engine:      joiner,
		notifier:    notifier,
		leaderboard: leaderboard,
	}
}

func (s *challengeService) ListActive(ctx context.Context, userID uuid.UUID) ([]dto.ChallengeResponse, error) {
	now := s.engine.Now()
	challenges, err := s.repo.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(challenges))
	for _, c := range challenges {
		ids = append(ids, c.ID)
	}
	memberships, err := s.repo.MembershipsFor(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ChallengeResponse, 0, len(challenges))
	for i := range challenges {
		var m *entity.ChallengeMembership
		if found, ok := memberships[challenges[i].ID]; ok {
			m = &found
		}
		out = append(out, s.toResponse(&challenges[i], m, now))
	}
	return out, nil
}

func (s *challengeService) MyChallenges(ctx context.Context, userID uuid.UUID) (*dto.MyChallengesResponse, error) {
	memberships, err := s.repo.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.engine.Now()
	res := &dto.MyChallengesResponse{
		Active:    []dto.ChallengeResponse{},
		Completed: []dto.ChallengeResponse{},
		Expired:   []dto.ChallengeResponse{},
	}
	for i := range memberships {
		m := &memberships[i]
		if m.Challenge == nil {
			continue
		}
		item := s.toResponse(m.Challenge, m, now)
		switch item.State {
		case "completed":
			res.Completed = append(res.Completed, item)
		case "expired":
			res.Expired = append(res.Expired, item)
		default:
			res.Active = append(res.Active, item)
		}
	}
	return res, nil
}

func (s *challengeService) Join(ctx context.Context, userID, challengeID uuid.UUID) (*engine.JoinResult, error) {
	result, err := s.engine.JoinChallenge(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	if result.Completed != nil {
		s.notifier.NotifyChallengeJoined(ctx, userID, result)
		if err := s.leaderboard.Invalidate(ctx); err != nil {
			log.Printf("Failed to invalidate leaderboard cache: %v", err)
		}
	}
	return result, nil
}

func (s *challengeService) CreateChallenge(ctx context.Context, req dto.CreateChallengeRequest) (*dto.ChallengeResponse, error) {
	challenge := &entity.Challenge{
		Name:            sanitizer.Text(req.Name),
		Description:     sanitizer.Text(req.Description),
		Period:          entity.ChallengePeriod(req.Period),
		TargetDimension: entity.TargetDimension(req.TargetDimension),
		TargetValue:     req.TargetValue,
		RewardPoints:    req.RewardPoints,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsActive:        true,
	}
	if challenge.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperror.ErrValidation)
	}
	if req.TargetCategory != nil && strings.TrimSpace(*req.TargetCategory) != "" {
		category := entity.Category(*req.TargetCategory).Normalize()
		challenge.TargetCategory = &category
	}
	if req.RewardBadgeID != nil && strings.TrimSpace(*req.RewardBadgeID) != "" {
		badgeID := strings.TrimSpace(*req.RewardBadgeID)
		exists, err := s.repo.BadgeExists(ctx, badgeID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: unknown reward badge %q", apperror.ErrValidation, badgeID)
		}
		challenge.RewardBadgeID = &badgeID
	}

	if err := engine.ValidateChallenge(challenge); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, challenge); err != nil {
		return nil, err
	}

	res := s.toResponse(challenge, nil, s.engine.Now())
	return &res, nil
}

// UpdateChallenge applies the present fields and re-validates the result. Once
// any member has completed the challenge its goal and window are frozen.
func (s *challengeService) UpdateChallenge(ctx context.Context, id uuid.UUID, req dto.UpdateChallengeRequest) (*dto.ChallengeResponse, error) {
	challenge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *challenge

	if req.Name != nil {
		name := sanitizer.Text(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", apperror.ErrValidation)
		}
		challenge.Name = name
	}
	if req.Description != nil {
		challenge.Description = sanitizer.Text(*req.Description)
	}
	if req.TargetDimension != nil {
		challenge.TargetDimension = entity.TargetDimension(*req.TargetDimension)
	}
	if req.TargetCategory != nil {
		challenge.TargetCategory = nil
		if strings.TrimSpace(*req.TargetCategory) != "" {
			category := entity.Category(*req.TargetCategory).Normalize()
			challenge.TargetCategory = &category
		}
	}
	if req.TargetValue != nil {
		challenge.TargetValue = *req.TargetValue
	}
	if req.RewardPoints != nil {
		challenge.RewardPoints = *req.RewardPoints
	}
	if req.RewardBadgeID != nil {
		challenge.RewardBadgeID = nil
		if badgeID := strings.TrimSpace(*req.RewardBadgeID); badgeID != "" {
			exists, err := s.repo.BadgeExists(ctx, badgeID)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, fmt.Errorf("%w: unknown reward badge %q", apperror.ErrValidation, badgeID)
			}
			challenge.RewardBadgeID = &badgeID
		}
	}
	if req.StartDate != nil {
		challenge.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		challenge.EndDate = *req.EndDate
	}
	if req.IsActive != nil {
		challenge.IsActive = *req.IsActive
	}

	if err := engine.ValidateChallenge(challenge); err != nil {
		return nil, err
	}
	if goalChanged(&before, challenge) {
		completed, err := s.repo.HasCompletedMembership(ctx, id)
		if err != nil {
			return nil, err
		}
		if completed {
			return nil, fmt.Errorf("%w: target and window are locked once a member has completed the challenge", apperror.ErrValidation)
		}
	}

	if err := s.repo.Update(ctx, challenge); err != nil {
		return nil, err
	}

	res := s.toResponse(challenge, nil, s.engine.Now())
	return &res, nil
}

// DeactivateChallenge closes the challenge to joins and further progress.
// Memberships and rewards already granted stay as they are.
func (s *challengeService) DeactivateChallenge(ctx context.Context, id uuid.UUID) error {
	challenge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !challenge.IsActive {
		return nil
	}
	challenge.IsActive = false
	if err := s.repo.Update(ctx, challenge); err != nil {
		return err
	}
	log.Printf("✅ Deactivated challenge %q", challenge.Name)
	return nil
}

// goalChanged reports whether anything that decides completion differs.
func goalChanged(a, b *entity.Challenge) bool {
	return a.TargetValue != b.TargetValue ||
		a.TargetDimension != b.TargetDimension ||
		!sameCategory(a.TargetCategory, b.TargetCategory) ||
		!a.StartDate.Equal(b.StartDate) ||
		!a.EndDate.Equal(b.EndDate)
}

func sameCategory(a, b *entity.Category) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *challengeService) EnsureRecurring(ctx context.Context, now time.Time) (int, error) {
	created := 0
	for _, period := range []entity.ChallengePeriod{entity.PeriodWeekly, entity.PeriodMonthly} {
		challenge := engine.Recurring(period, now, s.engine.Location())

		exists, err := s.repo.ExistsForPeriod(ctx, period, challenge.StartDate)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		if err := s.repo.Create(ctx, &challenge); err != nil {
			return created, fmt.Errorf("create %s challenge: %w", period, err)
		}
		log.Printf("✅ Created %s challenge %q (%s - %s)", period, challenge.Name,
			challenge.StartDate.Format("2006-01-02"), challenge.EndDate.Format("2006-01-02"))
		created++
	}
	return created, nil
}

func (s *challengeService) toResponse(c *entity.Challenge, m *entity.ChallengeMembership, now time.Time) dto.ChallengeResponse {
	res := dto.ChallengeResponse{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Period:          c.Period,
		TargetDimension: c.TargetDimension,
		TargetCategory:  c.TargetCategory,
		TargetValue:     c.TargetValue,
		RewardPoints:    c.RewardPoints,
		RewardBadgeID:   c.RewardBadgeID,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		IsActive:        c.IsActive,
		State:           engine.ChallengeState(c, m, now),
	}
	if left := engine.DaysBetween(now, c.EndDate, s.engine.Location()); left > 0 {
		res.DaysLeft = left
	}
	if m != nil {
		joinedAt := m.JoinedAt
		res.Joined = true
		res.JoinedAt = &joinedAt
		res.CompletedAt = m.CompletedAt
		res.Progress, res.Percent = engine.DisplayProgress(c, m.Progress)
	}
	return res
}
