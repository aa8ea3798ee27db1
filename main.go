package main

import (
	"time"

	"github.com/cppla/aiblog/auth"
	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/routes"
	"github.com/cppla/aiblog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(cfg)
	rc := utils.NewRedis(cfg)
	users := auth.NewGormUserStore(db)

	deps := routes.Deps{
		Config:   cfg,
		DB:       db,
		Cache:    utils.NewRedisCache(rc),
		Sessions: middleware.NewSessionManager(time.Duration(cfg.SessionLifetimeHours) * time.Hour),
	}
	switch cfg.TokenStrategy {
	case config.TokenStrategyJWT:
		secret := []byte(cfg.JWTSecret)
		deps.Issuer = auth.JWTIssuer{Secret: secret, TTL: time.Duration(cfg.TokenTTLHours) * time.Hour}
		deps.Verifier = auth.JWTVerifier{Secret: secret, Users: users, Blacklist: utils.NewTokenBlacklist(rc)}
	default:
		utils.Sugar.Warn("opaque token strategy: any token authenticates as the first active user")
		deps.Issuer = auth.OpaqueIssuer{}
		deps.Verifier = auth.FallbackVerifier{Users: users}
	}

	r := routes.SetupRouter(deps)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, deps.Sessions.LoadAndSave(r)); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
