package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	notifRepo "anoa.com/ecotrack/internal/modules/notification/repository"
	"anoa.com/ecotrack/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)

	// NotifyCompletion fans a committed completion out into in-app notifications.
	// Failures are logged, never returned.
	NotifyCompletion(ctx context.Context, userID uuid.UUID, summary *engine.CompletionSummary)
	NotifyChallengeJoined(ctx context.Context, userID uuid.UUID, result *engine.JoinResult)
	NotifyStreakAtRisk(ctx context.Context, userID uuid.UUID, current int)
	NotifyStreakBroken(ctx context.Context, userID uuid.UUID, lost int)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
	rules       []engine.BadgeRule
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client, rules []engine.BadgeRule) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
		rules:       rules,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	// 1. Save to DB
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	// 2. Publish to Redis if Redis is available
	if s.redisClient != nil {
		channel := fmt.Sprintf("user_notifications:%s", notification.UserID.String())

		payload, err := json.Marshal(notification)
		if err == nil {
			s.redisClient.Publish(ctx, channel, payload)
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) NotifyCompletion(ctx context.Context, userID uuid.UUID, summary *engine.CompletionSummary) {
	if summary == nil {
		return
	}
	for _, id := range summary.NewBadges {
		s.badgeEarned(ctx, userID, id)
	}
	for _, c := range summary.CompletedChallenges {
		s.challengeCompleted(ctx, userID, c)
	}
	if summary.LevelUp {
		s.send(ctx, &entity.Notification{
			UserID:     userID,
			EntityType: "level",
			Type:       entity.NotificationLevelUp,
			Message:    fmt.Sprintf("🎉 Level up! You reached level %d with %d points", summary.Level, summary.TotalPoints),
		})
	}
	if summary.Streak.IsNewRecord && summary.Streak.Current > 1 {
		s.send(ctx, &entity.Notification{
			UserID:     userID,
			EntityType: "streak",
			Type:       entity.NotificationStreakRecord,
			Message:    fmt.Sprintf("🔥 New personal record: %d days in a row!", summary.Streak.Current),
		})
	}
}

func (s *notificationService) NotifyChallengeJoined(ctx context.Context, userID uuid.UUID, result *engine.JoinResult) {
	if result == nil || result.Completed == nil {
		return
	}
	s.challengeCompleted(ctx, userID, *result.Completed)
	for _, id := range result.NewBadges {
		s.badgeEarned(ctx, userID, id)
	}
}

func (s *notificationService) NotifyStreakAtRisk(ctx context.Context, userID uuid.UUID, current int) {
	s.send(ctx, &entity.Notification{
		UserID:     userID,
		EntityType: "streak",
		Type:       entity.NotificationStreakAtRisk,
		Message:    fmt.Sprintf("⏰ Your %d day streak ends tonight. Log an eco activity to keep it!", current),
	})
}

func (s *notificationService) NotifyStreakBroken(ctx context.Context, userID uuid.UUID, lost int) {
	s.send(ctx, &entity.Notification{
		UserID:     userID,
		EntityType: "streak",
		Type:       entity.NotificationStreakBroken,
		Message:    fmt.Sprintf("💔 Your %d day streak has ended. Start a new one today!", lost),
	})
}

func (s *notificationService) badgeEarned(ctx context.Context, userID uuid.UUID, badgeID string) {
	name := badgeID
	icon := "🏅"
	if rule, ok := engine.FindRule(s.rules, badgeID); ok {
		name, icon = rule.Name, rule.Icon
	}
	s.send(ctx, &entity.Notification{
		UserID:     userID,
		EntityType: "badge",
		Type:       entity.NotificationBadgeEarned,
		Message:    fmt.Sprintf("%s You earned the badge \"%s\"", icon, name),
	})
}

func (s *notificationService) challengeCompleted(ctx context.Context, userID uuid.UUID, c engine.CompletedChallenge) {
	challengeID := c.ChallengeID
	s.send(ctx, &entity.Notification{
		UserID:     userID,
		EntityID:   &challengeID,
		EntityType: "challenge",
		Type:       entity.NotificationChallengeCompleted,
		Message:    fmt.Sprintf("🏆 Challenge \"%s\" completed! +%d points", c.Name, c.RewardPoints),
	})
}

func (s *notificationService) send(ctx context.Context, n *entity.Notification) {
	if err := s.CreateNotification(ctx, n); err != nil {
		log.Printf("Failed to send %s notification to user %s: %v", n.Type, n.UserID, err)
	}
}
