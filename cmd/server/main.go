package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"MateGuard/internal/contacts"
	"MateGuard/internal/crisis"
	handlers "MateGuard/internal/handler"
	"MateGuard/internal/ledger"
	"MateGuard/internal/listeners"
	"MateGuard/pkg/backup"
	"MateGuard/pkg/capability"
	"MateGuard/pkg/cache"
	"MateGuard/pkg/config"
	"MateGuard/pkg/logger"
	"MateGuard/pkg/metrics"
	"MateGuard/pkg/scheduler"
	"MateGuard/pkg/secure"
	"MateGuard/pkg/util"
	"MateGuard/pkg/websocket"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()
	metrics.SetGlobal(metrics.NewMetrics())

	// 数据库缺席时进程以降级模式继续：警报留在内存热缓存里
	db, err := util.OpenDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("database unavailable, continuing without persistence", zap.Error(err))
		db = nil
	}

	led, err := ledger.New(db)
	if err != nil {
		logger.Error("ledger init failed", zap.Error(err))
		os.Exit(1)
	}

	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Warn("cache unavailable", zap.Error(err))
		c = nil
	}

	var kv secure.KV = secure.NewMemoryKV()
	if db != nil {
		gkv, err := secure.NewGormKV(db)
		if err != nil {
			logger.Error("secure storage init failed", zap.Error(err))
			os.Exit(1)
		}
		kv = gkv
	}
	store := secure.NewStore(kv)
	book := contacts.NewBook(store)

	// 平台能力客户端由设备侧桥接注入；纯服务端部署保持 nil，
	// 对应能力上报 unsupported 并走降级路径
	caps := capability.NewManager(
		capability.NewLocationProvider(capability.LocationConfig{Timeout: cfg.LocationTimeout}, nil, led),
		capability.NewSMSSender(nil, led),
		capability.NewCaller(nil, led),
		capability.NewNotifier(nil, led),
		nil, led, store, c,
	)

	sched := scheduler.New()
	defer sched.Stop()

	responder := crisis.NewResponder(crisis.ResponderConfig{
		CriticalTimeout: cfg.CriticalEscalation,
		HighTimeout:     cfg.HighEscalation,
	}, book, led, caps, sched, util.NewIDGenerator(cfg.MachineID))

	hub := websocket.NewHub(websocket.DefaultConfig(), responder.MarkResponseReceived)
	listeners.InitCrisisListeners(responder, hub)

	cr := scheduler.NewCron(nil)
	if _, err := cr.AddWithCtx(cfg.PermissionRefresh, func(ctx context.Context) {
		caps.RequestAll(ctx)
	}); err != nil {
		logger.Warn("permission refresh job not scheduled", zap.Error(err))
	}
	if cfg.BackupSchedule != "" {
		if _, err := cr.AddWithCtx(cfg.BackupSchedule, backup.Job(cfg.DBDriver, cfg.DSN, cfg.BackupPath)); err != nil {
			logger.Warn("backup job not scheduled", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	handlers.NewHandlers(db, book, led, responder, caps, hub).Register(engine)

	srv := &http.Server{Addr: cfg.Addr, Handler: engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
			os.Exit(1)
		}
	}()
	logger.Info("crisis response server started", zap.String("addr", cfg.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	logger.Info("server stopped")
}
