package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/pkg/apperror"
	"github.com/google/uuid"
)

type membershipKey struct {
	user      uuid.UUID
	challenge uuid.UUID
}

type memData struct {
	users       map[uuid.UUID]entity.User
	activities  map[uuid.UUID]entity.Activity
	completions []entity.Completion
	streaks     map[uuid.UUID]entity.Streak
	badges      map[uuid.UUID]map[string]time.Time
	challenges  map[uuid.UUID]entity.Challenge
	memberships map[membershipKey]entity.ChallengeMembership
}

func (d *memData) clone() *memData {
	c := &memData{
		users:       make(map[uuid.UUID]entity.User, len(d.users)),
		activities:  make(map[uuid.UUID]entity.Activity, len(d.activities)),
		completions: append([]entity.Completion(nil), d.completions...),
		streaks:     make(map[uuid.UUID]entity.Streak, len(d.streaks)),
		badges:      make(map[uuid.UUID]map[string]time.Time, len(d.badges)),
		challenges:  make(map[uuid.UUID]entity.Challenge, len(d.challenges)),
		memberships: make(map[membershipKey]entity.ChallengeMembership, len(d.memberships)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.activities {
		c.activities[k] = v
	}
	for k, v := range d.streaks {
		c.streaks[k] = v
	}
	for k, v := range d.badges {
		inner := make(map[string]time.Time, len(v))
		for b, at := range v {
			inner[b] = at
		}
		c.badges[k] = inner
	}
	for k, v := range d.challenges {
		c.challenges[k] = v
	}
	for k, v := range d.memberships {
		c.memberships[k] = v
	}
	return c
}

// memStore is an in-memory Store. WithinUserTx works on a copy and swaps it in on
// success, so a failed attempt leaves no trace.
type memStore struct {
	mu   sync.Mutex
	data *memData

	root *memStore
	// conflicts makes the next N UpdateUserPoints calls fail with ErrConflict.
	conflicts int
	txCount   int
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		users:       map[uuid.UUID]entity.User{},
		activities:  map[uuid.UUID]entity.Activity{},
		streaks:     map[uuid.UUID]entity.Streak{},
		badges:      map[uuid.UUID]map[string]time.Time{},
		challenges:  map[uuid.UUID]entity.Challenge{},
		memberships: map[membershipKey]entity.ChallengeMembership{},
	}}
}

func (s *memStore) addUser(points int) entity.User {
	u := entity.User{ID: uuid.New(), Username: "user", Role: entity.RoleUser, Points: points, Level: LevelFor(points)}
	s.data.users[u.ID] = u
	return u
}

func (s *memStore) addActivity(category entity.Category, points int) entity.Activity {
	a := entity.Activity{ID: uuid.New(), Name: string(category) + " activity", Category: category, Points: points, IsActive: true}
	s.data.activities[a.ID] = a
	return a
}

func (s *memStore) addChallenge(c entity.Challenge) entity.Challenge {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.data.challenges[c.ID] = c
	return c
}

func (s *memStore) user(id uuid.UUID) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.users[id]
}

func (s *memStore) membership(userID, challengeID uuid.UUID) entity.ChallengeMembership {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.memberships[membershipKey{userID, challengeID}]
}

func (s *memStore) badgeCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.badges[userID])
}

func (s *memStore) completionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.completions)
}

func (s *memStore) WithinUserTx(ctx context.Context, userID uuid.UUID, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	tx := &memStore{data: s.data.clone(), root: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *memStore) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	u, ok := s.data.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
	}
	return &u, nil
}

func (s *memStore) UpdateUserPoints(ctx context.Context, userID uuid.UUID, points, level int, expectedVersion int64) error {
	if s.root != nil && s.root.conflicts > 0 {
		s.root.conflicts--
		return apperror.ErrConflict
	}
	u, ok := s.data.users[userID]
	if !ok {
		return apperror.ErrNotFound
	}
	if u.Version != expectedVersion {
		return apperror.ErrConflict
	}
	u.Points, u.Level, u.Version = points, level, u.Version+1
	s.data.users[userID] = u
	return nil
}

func (s *memStore) GetActivity(ctx context.Context, activityID uuid.UUID) (*entity.Activity, error) {
	a, ok := s.data.activities[activityID]
	if !ok {
		return nil, fmt.Errorf("activity %s: %w", activityID, apperror.ErrNotFound)
	}
	return &a, nil
}

func (s *memStore) AppendCompletion(ctx context.Context, c *entity.Completion) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.data.completions = append(s.data.completions, *c)
	return nil
}

func (s *memStore) CountCompletions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range s.data.completions {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListCompletions(ctx context.Context, userID uuid.UUID, w Window) ([]entity.Completion, error) {
	var out []entity.Completion
	for _, c := range s.data.completions {
		if c.UserID == userID && w.Contains(c.CompletedAt) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) GetStreak(ctx context.Context, userID uuid.UUID) (*entity.Streak, error) {
	st, ok := s.data.streaks[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *memStore) UpsertStreak(ctx context.Context, st *entity.Streak) error {
	s.data.streaks[st.UserID] = *st
	return nil
}

func (s *memStore) HasBadge(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error) {
	_, ok := s.data.badges[userID][badgeID]
	return ok, nil
}

func (s *memStore) ListAwardedBadges(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var ids []string
	for id := range s.data.badges[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memStore) AwardBadge(ctx context.Context, userID uuid.UUID, badgeID string, at time.Time) (bool, error) {
	if s.data.badges[userID] == nil {
		s.data.badges[userID] = map[string]time.Time{}
	}
	if _, ok := s.data.badges[userID][badgeID]; ok {
		return false, nil
	}
	s.data.badges[userID][badgeID] = at
	return true, nil
}

func (s *memStore) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*entity.Challenge, error) {
	c, ok := s.data.challenges[challengeID]
	if !ok {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, apperror.ErrNotFound)
	}
	return &c, nil
}

func (s *memStore) GetChallengeMembership(ctx context.Context, userID, challengeID uuid.UUID) (*entity.ChallengeMembership, error) {
	m, ok := s.data.memberships[membershipKey{userID, challengeID}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *memStore) ListActiveMemberships(ctx context.Context, userID uuid.UUID, at time.Time) ([]entity.ChallengeMembership, error) {
	var out []entity.ChallengeMembership
	for k, m := range s.data.memberships {
		if k.user != userID || m.IsCompleted {
			continue
		}
		c := s.data.challenges[k.challenge]
		if !c.IsActive || !InWindow(&c, at) {
			continue
		}
		m.Challenge = &c
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *memStore) UpsertChallengeMembership(ctx context.Context, m *entity.ChallengeMembership) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	stored := *m
	stored.Challenge = nil
	s.data.memberships[membershipKey{m.UserID, m.ChallengeID}] = stored
	return nil
}
