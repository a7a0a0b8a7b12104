package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lerntrainer_backend/internal/config"
	"lerntrainer_backend/internal/controller"
	"lerntrainer_backend/internal/repository"
	"lerntrainer_backend/internal/service"
	"lerntrainer_backend/pkg/database"
	"lerntrainer_backend/pkg/logger"
	"lerntrainer_backend/pkg/monitoring"
	"lerntrainer_backend/pkg/security"
	"lerntrainer_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	profile      *repository.ProfileRepository
	badge        *repository.BadgeRepository
	exercise     *repository.ExerciseRepository
	result       *repository.ResultRepository
	snapshot     *repository.SnapshotRepository
	notification *repository.NotificationRepository
	challenge    *repository.ChallengeRepository
}

type services struct {
	scoring     *service.ScoringService
	achievement *service.AchievementService
	profile     *service.ProfileService
	session     *service.SessionService
	challenge   *service.ChallengeService
	content     *service.ContentService
}

type controllers struct {
	profile     *controller.ProfileController
	session     *controller.SessionController
	achievement *controller.AchievementController
	savegame    *controller.SaveGameController
	challenge   *controller.ChallengeController
	content     *controller.ContentController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更：替换配置指针并同步游戏化参数
// 只覆盖运行期可变的部分，端口、数据库连接等需要重启
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	if a.services != nil && a.services.scoring != nil {
		a.services.scoring.StarsPerLevel = cfg.Game.StarsPerLevel
	}
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Config reloaded", zap.Int("starsPerLevel", cfg.Game.StarsPerLevel))
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		profile:      repository.NewProfileRepository(db),
		badge:        repository.NewBadgeRepository(db),
		exercise:     repository.NewExerciseRepository(db),
		result:       repository.NewResultRepository(db),
		snapshot:     repository.NewSnapshotRepository(rdb),
		notification: repository.NewNotificationRepository(rdb),
		challenge:    repository.NewChallengeRepository(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.scoring = service.NewScoringService(cfg.Game.StarsPerLevel)
	s.achievement = service.NewAchievementService(repos.badge, repos.profile, repos.notification)
	s.profile = service.NewProfileService(
		repos.profile,
		repos.snapshot,
		repos.result,
		repos.notification,
		repos.exercise,
		s.scoring,
	)
	s.session = service.NewSessionService(
		repos.exercise,
		repos.result,
		s.profile,
		s.achievement,
		repos.notification,
		s.scoring,
	)
	s.challenge = service.NewChallengeService(repos.challenge)
	s.content = service.NewContentService(repos.exercise)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		profile:     controller.NewProfileController(s.profile, a.Config),
		session:     controller.NewSessionController(s.session),
		achievement: controller.NewAchievementController(s.achievement, s.profile, repos.notification),
		savegame:    controller.NewSaveGameController(s.profile),
		challenge:   controller.NewChallengeController(s.challenge),
		content:     controller.NewContentController(s.content),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	// AuthMiddleware 从上下文取配置，保证热更 JWT 配置即时生效
	router.Use(func(c *gin.Context) {
		c.Set("config", a.Config)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("lerntrainer", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
