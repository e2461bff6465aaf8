package app

import (
	"context"
	"errors"
	"invest_edu_backend/internal/config"
	"invest_edu_backend/internal/controller"
	"invest_edu_backend/internal/repository"
	"invest_edu_backend/internal/service"
	"invest_edu_backend/internal/util"
	"invest_edu_backend/pkg/configwatcher"
	"invest_edu_backend/pkg/database"
	"invest_edu_backend/pkg/logger"
	"invest_edu_backend/pkg/monitoring"
	"invest_edu_backend/pkg/security"
	"invest_edu_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configDir = "configs"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	scheduler       *cron.Cron
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user    *repository.UserRepository
	content *repository.ContentRepository
	chat    *repository.ChatRepository
}

type services struct {
	ai        *service.AIService
	limiter   service.RateLimiter
	cache     service.ProgressCache
	auth      *service.AuthService
	generator *service.CourseGeneratorService
	courses   *service.CourseService
	lessons   *service.LessonContentService
	progress  *service.ProgressService
	chat      *service.ChatService
}

type controllers struct {
	auth       *controller.AuthController
	course     *controller.CourseController
	lesson     *controller.LessonController
	chat       *controller.ChatController
	compliance *controller.ComplianceController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		content: repository.NewContentRepository(db),
		chat:    repository.NewChatRepository(db),
	}
}

func newRateLimiter(cfg *config.Config, rdb *redis.Client) service.RateLimiter {
	if cfg.RateLimit.Backend == util.BackendRedis && rdb != nil {
		return service.NewRedisRateLimiter(rdb, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	}
	if cfg.RateLimit.Backend == util.BackendRedis {
		logger.Log.Warn("Redis rate limiter requested but redis is disabled, using memory")
	}
	return service.NewMemoryRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
}

func newProgressCache(cfg *config.Config, rdb *redis.Client) service.ProgressCache {
	switch cfg.Progress.CacheBackend {
	case util.BackendNone:
		return service.NoopProgressCache{}
	case util.BackendRedis:
		if rdb != nil {
			return service.NewRedisProgressCache(rdb, cfg.Progress.CacheTTL())
		}
		logger.Log.Warn("Redis progress cache requested but redis is disabled, using memory")
	}
	return service.NewMemoryProgressCache(cfg.Progress.CacheTTL())
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.limiter = newRateLimiter(cfg, rdb)
	s.cache = newProgressCache(cfg, rdb)

	s.auth = service.NewAuthService(repos.user, cfg)
	s.generator = service.NewCourseGeneratorService(repos.content, s.ai, s.limiter, cfg.Generation.InsertConcurrency)
	s.courses = service.NewCourseService(repos.content)
	s.lessons = service.NewLessonContentService(repos.content, s.ai)
	s.progress = service.NewProgressService(repos.content, s.cache)
	s.chat = service.NewChatService(repos.chat, s.ai, s.limiter)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.limiter.SetLimits(newCfg.RateLimit.MaxRequests, newCfg.RateLimit.Window())
		logger.Log.Info("Rate limits updated",
			zap.Int("max_requests", newCfg.RateLimit.MaxRequests),
			zap.Int("window_seconds", newCfg.RateLimit.WindowSeconds),
		)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		course:     controller.NewCourseController(s.generator, s.courses, s.progress),
		lesson:     controller.NewLessonController(s.lessons, s.progress),
		chat:       controller.NewChatController(s.chat),
		compliance: controller.NewComplianceController(),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.GlobalPerMinute, time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks schedules in-memory housekeeping; redis-backed state expires on its own.
func (a *App) startBackgroundTasks(s *services) {
	a.scheduler = cron.New()

	if limiter, ok := s.limiter.(*service.MemoryRateLimiter); ok {
		a.scheduler.AddFunc("@every 1m", func() {
			if n := limiter.Sweep(); n > 0 {
				logger.Log.Debug("Swept rate limit windows", zap.Int("removed", n))
			}
		})
	}
	if cache, ok := s.cache.(*service.MemoryProgressCache); ok {
		a.scheduler.AddFunc("@every 5m", func() {
			if n := cache.Sweep(); n > 0 {
				logger.Log.Debug("Swept progress cache", zap.Int("removed", n))
			}
		})
	}

	a.scheduler.Start()
}

func (a *App) watchConfig(ctx context.Context) {
	go func() {
		err := configwatcher.WatchConfig(ctx, filepath.Join(configDir, "config.yaml"), func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	ctrls := app.initControllers(app.services, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("invest-edu-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, repos, cfg)
	app.startBackgroundTasks(app.services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	a.watchConfig(ctx)

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
