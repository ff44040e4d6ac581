package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"anoa.com/ecotrack/internal/config"
	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/metrics"
	"anoa.com/ecotrack/internal/middleware"
	"anoa.com/ecotrack/internal/scheduler"
	"anoa.com/ecotrack/pkg/response"

	activityHttp "anoa.com/ecotrack/internal/modules/activity/delivery/http"
	activityRepo "anoa.com/ecotrack/internal/modules/activity/repository"
	activityService "anoa.com/ecotrack/internal/modules/activity/service"

	badgeHttp "anoa.com/ecotrack/internal/modules/badge/delivery/http"
	badgeRepo "anoa.com/ecotrack/internal/modules/badge/repository"
	badgeService "anoa.com/ecotrack/internal/modules/badge/service"

	challengeHttp "anoa.com/ecotrack/internal/modules/challenge/delivery/http"
	challengeRepo "anoa.com/ecotrack/internal/modules/challenge/repository"
	challengeService "anoa.com/ecotrack/internal/modules/challenge/service"

	impactHttp "anoa.com/ecotrack/internal/modules/impact/delivery/http"
	impactService "anoa.com/ecotrack/internal/modules/impact/service"

	leaderboardHttp "anoa.com/ecotrack/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/ecotrack/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/ecotrack/internal/modules/leaderboard/service"

	notiHttp "anoa.com/ecotrack/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/ecotrack/internal/modules/notification/repository"
	notifService "anoa.com/ecotrack/internal/modules/notification/service"

	progressRepo "anoa.com/ecotrack/internal/modules/progress/repository"

	statHttp "anoa.com/ecotrack/internal/modules/stat/delivery/http"
	statRepo "anoa.com/ecotrack/internal/modules/stat/repository"
	statService "anoa.com/ecotrack/internal/modules/stat/service"

	streakHttp "anoa.com/ecotrack/internal/modules/streak/delivery/http"
	streakRepo "anoa.com/ecotrack/internal/modules/streak/repository"
	streakService "anoa.com/ecotrack/internal/modules/streak/service"

	userHttp "anoa.com/ecotrack/internal/modules/user/delivery/http"
	userRepo "anoa.com/ecotrack/internal/modules/user/repository"
	userService "anoa.com/ecotrack/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	JobRecurringChallenges = "recurring_challenges"
	JobStreakSweep         = "streak_sweep"
	JobStreakReminder      = "streak_reminder"

	// Reminders go out in the evening of the configured timezone.
	streakReminderSchedule = "0 18 * * *"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *scheduler.Scheduler
	limiter     *middleware.RateLimiter
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	gamification := engine.New(progressRepo.NewStore(db), engine.Config{
		Location:           cfg.Timezone,
		MaxConflictRetries: cfg.MaxConflictRetries,
		BadgeRules:         engine.DefaultBadgeRules,
		OncePerDay:         true,
	})

	userRepository := userRepo.NewUserRepository(db)
	userSvc := userService.NewUserService(userRepository, cfg.JWTSecret, 24*time.Hour)
	userHandler := userHttp.NewUserHandler(userSvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient, gamification.Rules())
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc)

	leaderboardRepository := leaderboardRepo.NewLeaderboardRepository(db)
	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepository, gamification, redisClient, cfg.LeaderboardCacheTTL)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	activityRepository := activityRepo.NewActivityRepository(db)
	activitySvc := activityService.NewActivityService(activityRepository, gamification, notificationSvc, leaderboardSvc, redisClient, cfg.RateLimitComplete)
	activityHandler := activityHttp.NewActivityHandler(activitySvc)

	badgeRepository := badgeRepo.NewBadgeRepository(db)
	badgeSvc := badgeService.NewBadgeService(badgeRepository, gamification.Rules())
	badgeHandler := badgeHttp.NewBadgeHandler(badgeSvc)

	challengeRepository := challengeRepo.NewChallengeRepository(db)
	challengeSvc := challengeService.NewChallengeService(challengeRepository, gamification, notificationSvc, leaderboardSvc)
	challengeHandler := challengeHttp.NewChallengeHandler(challengeSvc)

	streakRepository := streakRepo.NewStreakRepository(db)
	streakSvc := streakService.NewStreakService(streakRepository, gamification, notificationSvc, redisClient)
	streakHandler := streakHttp.NewStreakHandler(streakSvc)

	impactSvc := impactService.NewImpactService(activityRepository, gamification)
	impactHandler := impactHttp.NewImpactHandler(impactSvc)

	statRepository := statRepo.NewStatRepository(db)
	statSvc := statService.NewStatService(userRepository, streakSvc, badgeRepository, impactSvc, leaderboardSvc, statRepository, gamification)
	statHandler := statHttp.NewStatHandler(statSvc)

	// Background jobs
	jobs := scheduler.New(gamification.Location(), 0)
	every := "@every " + cfg.SchedulerInterval.String()
	for _, job := range []scheduler.Job{
		scheduler.NewJob(JobRecurringChallenges, every, func(ctx context.Context) error {
			_, err := challengeSvc.EnsureRecurring(ctx, gamification.Now())
			return err
		}),
		scheduler.NewJob(JobStreakSweep, every, func(ctx context.Context) error {
			n, err := streakSvc.BreakExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				return leaderboardSvc.Invalidate(ctx)
			}
			return nil
		}),
		scheduler.NewJob(JobStreakReminder, streakReminderSchedule, func(ctx context.Context) error {
			_, err := streakSvc.NotifyAtRisk(ctx)
			return err
		}),
	} {
		if err := jobs.Register(job); err != nil {
			return nil, err
		}
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}))

	if cfg.MetricsEnabled {
		metrics.Init()
		router.Use(metrics.Middleware())
		router.GET("/metrics", metrics.Handler())
	}

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisClient != nil})
	})

	limiter := middleware.NewRateLimiter(5, 30)
	authMiddleware := middleware.NewAuthMiddleware(userRepository, cfg.JWTSecret)

	api := router.Group("/api")
	api.Use(limiter.Middleware())

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/users", userHandler.CreateUser)
			adminGroup.GET("/users", userHandler.ListUsers)
			adminGroup.POST("/users/:id/token", userHandler.IssueToken)

			adminGroup.POST("/activities", activityHandler.CreateActivity)
			adminGroup.PUT("/activities/:id", activityHandler.UpdateActivity)
			adminGroup.DELETE("/activities/:id", activityHandler.DeactivateActivity)

			adminGroup.POST("/challenges", challengeHandler.CreateChallenge)
			adminGroup.PUT("/challenges/:id", challengeHandler.UpdateChallenge)
			adminGroup.DELETE("/challenges/:id", challengeHandler.DeactivateChallenge)

			adminGroup.GET("/stats", statHandler.GetAdminStats)

			adminGroup.POST("/jobs/:name/run", func(c *gin.Context) {
				if err := jobs.RunByName(c.Request.Context(), c.Param("name")); err != nil {
					response.ResponseError(c, err)
					return
				}
				c.JSON(http.StatusOK, gin.H{"message": "job completed"})
			})
		}

		// User routes
		protected.GET("/users/me", userHandler.GetMe)
		protected.GET("/users/count", statHandler.GetTotalUsers)

		// Activity routes
		protected.GET("/activities", activityHandler.ListActivities)
		protected.GET("/activities/history", activityHandler.History)
		protected.GET("/activities/today", activityHandler.Today)
		protected.POST("/activities/:id/complete", activityHandler.CompleteActivity)

		// Gamification routes
		protected.GET("/badges", badgeHandler.Catalog)
		protected.GET("/badges/me", badgeHandler.MyBadges)
		protected.GET("/challenges", challengeHandler.ListActive)
		protected.GET("/challenges/me", challengeHandler.MyChallenges)
		protected.POST("/challenges/:id/join", challengeHandler.Join)
		protected.GET("/streaks/me", streakHandler.GetMyStreak)
		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		protected.GET("/impact/me", impactHandler.GetMyImpact)
		protected.GET("/stats/me", statHandler.GetMyStats)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   jobs,
		limiter:     limiter,
	}, nil
}

// Run serves HTTP on addr and runs the background jobs until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	if err := s.scheduler.RunByName(ctx, JobRecurringChallenges); err != nil {
		log.Printf("⚠️ Initial recurring challenge check failed: %v", err)
	}
	s.scheduler.Start()
	go s.limiter.Cleanup(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
