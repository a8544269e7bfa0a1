package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/rpgcraft/api/rest"
	"github.com/kasuganosora/rpgcraft/api/sse"
	"github.com/kasuganosora/rpgcraft/audit"
	"github.com/kasuganosora/rpgcraft/cache"
	"github.com/kasuganosora/rpgcraft/config"
	dbadapter "github.com/kasuganosora/rpgcraft/db"
	"github.com/kasuganosora/rpgcraft/game/craft"
	"github.com/kasuganosora/rpgcraft/game/script"
	mw "github.com/kasuganosora/rpgcraft/middleware"
	"github.com/kasuganosora/rpgcraft/model"
	"github.com/kasuganosora/rpgcraft/plugin/hook"
	"github.com/kasuganosora/rpgcraft/resource"
	"github.com/kasuganosora/rpgcraft/scheduler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKeyHash == "" {
		logger.Warn("server.admin_key_hash is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, pubsub, err := cache.Open(cacheConfig)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}
	defer c.Close()
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Crafting data ----
	res := resource.NewLoader(cfg.Crafting.DataPath, resource.Files{
		Materials:   cfg.Crafting.MaterialsFile,
		BannedNames: cfg.Crafting.BannedNamesFile,
		Volumes: map[resource.Family]string{
			resource.FamilyArmor:  cfg.Crafting.ArmorFile,
			resource.FamilyWeapon: cfg.Crafting.WeaponFile,
			resource.FamilyShield: cfg.Crafting.ShieldFile,
			resource.FamilySiege:  cfg.Crafting.SiegeFile,
		},
	})
	res.EagerVolumes = cfg.Crafting.EagerLoad
	if err := res.Load(); err != nil {
		logger.Fatal("crafting data", zap.String("path", cfg.Crafting.DataPath), zap.Error(err))
	}
	logger.Info("Crafting data loaded",
		zap.Int("materials", res.Materials.Count()),
		zap.Int("banned_names", res.BannedNames.Len()),
		zap.Bool("eager_volumes", res.EagerVolumes))

	// ---- Engine ----
	opts := []craft.Option{craft.WithBannedNames(res.BannedNames)}
	if cfg.Crafting.RNGSeed != 0 {
		opts = append(opts, craft.WithSeed(cfg.Crafting.RNGSeed))
	}
	if cfg.Crafting.DamageFormula != "" {
		sandbox := script.NewSandbox(cfg.Script.VMPoolSize, cfg.Script.Timeout, logger)
		opts = append(opts, craft.WithDamageFormula(craft.NewScriptFormula(sandbox, cfg.Crafting.DamageFormula)))
		logger.Info("Scripted damage formula enabled")
	}
	engine := craft.NewEngine(res.Volumes, opts...)
	hooks := hook.NewHookCenter()
	if len(cfg.Crafting.DisabledFamilies) > 0 {
		hooks.Register(hook.BeforeCraft, 0, "disabled_families", hook.DisableFamilies(cfg.Crafting.DisabledFamilies...))
		logger.Info("Crafting families disabled", zap.Strings("families", cfg.Crafting.DisabledFamilies))
	}
	craftSvc := craft.NewService(engine, res.Materials, db, logger,
		craft.WithCache(c, pubsub),
		craft.WithAudit(auditSvc),
		craft.WithHooks(hooks),
		craft.WithRecentLimit(cfg.Crafting.RecentLimit),
	)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	if cfg.Audit.Retention > 0 && cfg.Audit.PruneInterval > 0 {
		sched.AddTicker("audit_prune", cfg.Audit.PruneInterval, func(ctx context.Context) error {
			n, err := auditSvc.Prune(ctx, time.Now().Add(-cfg.Audit.Retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("audit pruned", zap.Int64("rows", n))
			}
			return nil
		})
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Metrics(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.NewRateLimiter(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst).Handler())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := apirest.NewAuthHandler(db, c, cfg.Security, logger)
	matH := apirest.NewMaterialHandler(res.Materials, res.Volumes)
	craftH := apirest.NewCraftHandler(craftSvc)
	sseH := sse.NewHandler(pubsub, logger)
	adminH := apirest.NewAdminHandler(db, res, sched, sseH, logger)
	auth := mw.Auth(cfg.Security, c)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", auth, authH.Logout)
		authG.POST("/refresh", auth, authH.Refresh)

		api.GET("/materials", matH.List)
		api.GET("/materials/:name", matH.Get)
		api.GET("/archetypes/:family", matH.Archetypes)

		craftG := api.Group("/craft", auth)
		craftG.POST("/armor", craftH.Armor)
		craftG.POST("/weapon", craftH.Weapon)
		craftG.POST("/bow", craftH.Bow)
		craftG.POST("/shield", craftH.Shield)
		craftG.POST("/siege", craftH.Siege)
		craftG.POST("/jewelry", craftH.Jewelry)

		craftsG := api.Group("/crafts", auth)
		craftsG.GET("", craftH.Recent)
		craftsG.GET("/:id", craftH.Get)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs), mw.AdminKey(cfg.Server.AdminKeyHash))
		adminG.GET("/status", adminH.Status)
		adminG.POST("/volumes/:family/load", adminH.LoadVolumes)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.POST("/announce", adminH.Announce)
	}

	r.GET("/sse", auth, sseH.ServeSSE)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// event streams end when the process is asked to stop
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}
