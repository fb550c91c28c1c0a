package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/EthanMiao/manaboo/internal/config"
	"github.com/EthanMiao/manaboo/internal/controller"
	"github.com/EthanMiao/manaboo/internal/jobs"
	"github.com/EthanMiao/manaboo/internal/llm"
	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/pkg/configwatcher"
	"github.com/EthanMiao/manaboo/pkg/database"
	"github.com/EthanMiao/manaboo/pkg/logger"
	"github.com/EthanMiao/manaboo/pkg/monitoring"
	"github.com/EthanMiao/manaboo/pkg/security"
	"github.com/EthanMiao/manaboo/pkg/tracing"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	scheduler       *jobs.Scheduler
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	grammar     *repository.GrammarRepository
	exercise    *repository.ExerciseRepository
	mistake     *repository.MistakeRepository
	proficiency *repository.ProficiencyRepository
	dialogue    *repository.DialogueRepository
	studyStat   *repository.StudyStatRepository
}

type services struct {
	ai             *service.AIService
	storage        *service.StorageService
	proficiency    *service.ProficiencyService
	grammar        *service.GrammarService
	recommendation *service.RecommendationService
	dialogue       *service.DialogueService
	stats          *service.StatsService
}

type controllers struct {
	health         *controller.HealthController
	grammar        *controller.GrammarController
	recommendation *controller.RecommendationController
	dialogue       *controller.DialogueController
	stats          *controller.StatsController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		grammar:     repository.NewGrammarRepository(db, rdb, a.Config.Redis.GrammarTTL),
		exercise:    repository.NewExerciseRepository(db),
		mistake:     repository.NewMistakeRepository(db),
		proficiency: repository.NewProficiencyRepository(db),
		dialogue:    repository.NewDialogueRepository(db),
		studyStat:   repository.NewStudyStatRepository(db),
	}
}

func (a *App) initServices(ctx context.Context, repos *repositories, db *gorm.DB) (*services, error) {
	cfg := a.Config
	s := &services{}

	provider, err := llm.NewProvider(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}
	s.ai = service.NewAIService(provider, cfg.AI)

	s.storage, err = service.NewStorageService(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	if p, ok := s.storage.Provider.(*service.MinioStorageProvider); ok {
		if err := p.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
	}

	s.proficiency = service.NewProficiencyService(db, repos.grammar, repos.proficiency, repos.mistake, repos.studyStat)
	s.grammar = service.NewGrammarService(
		db,
		repos.grammar,
		repos.exercise,
		repos.mistake,
		repos.proficiency,
		s.proficiency,
		s.ai,
	)
	s.recommendation = service.NewRecommendationService(repos.proficiency, repos.mistake)
	s.dialogue = service.NewDialogueService(db, repos.dialogue, repos.studyStat, s.ai)
	s.stats = service.NewStatsService(
		repos.studyStat,
		repos.proficiency,
		repos.mistake,
		repos.dialogue,
		s.storage,
		cfg.Export.Archive,
	)

	return s, nil
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		health:         controller.NewHealthController(a.DB, a.Redis),
		grammar:        controller.NewGrammarController(s.grammar),
		recommendation: controller.NewRecommendationController(s.recommendation),
		dialogue:       controller.NewDialogueController(s.dialogue),
		stats:          controller.NewStatsController(s.stats),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// 配置热加载只调整日志级别和生成超时，其余配置需要重启
func (a *App) registerReloaders() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.SetLevel(logger.LevelFor(cfg))
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.services.ai.SetTimeout(cfg.AI.Timeout)
	})
}

func (a *App) reload(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("Config callbacks applied",
		zap.String("log_level", logger.Level().String()),
		zap.Duration("ai_timeout", a.services.ai.Timeout()))
}

// NewApp 初始化日志、数据库、缓存、生成服务和路由
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("initialize redis: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	// 启动时的迁移可能写入新种子，旧的语法缓存作废
	if err := repos.grammar.InvalidateCache(ctx); err != nil {
		logger.Log.Warn("清理语法缓存失败", zap.Error(err))
	}
	app.services, err = app.initServices(ctx, repos, db)
	if err != nil {
		app.Close()
		return nil, err
	}
	controllers := app.initControllers(app.services)
	app.registerReloaders()

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		app.tracer, err = tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
	}

	router := gin.Default()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Jobs.Enabled {
		app.scheduler = jobs.New(app.services.stats, cfg.Jobs.RollupCron)
	}

	return app, nil
}

// Stats 供命令行离线导出使用
func (a *App) Stats() *service.StatsService {
	return a.services.stats
}

// Run 阻塞直到收到 SIGINT/SIGTERM 或服务异常退出
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			return err
		}
	}

	if a.Config.File != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.Config.File, a.reload); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}

// Close 释放后台任务和连接，可重复调用
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
		cancel()
		a.tracer = nil
	}
	if a.Redis != nil {
		a.Redis.Close()
		a.Redis = nil
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
		a.DB = nil
	}
	_ = logger.Log.Sync()
}
