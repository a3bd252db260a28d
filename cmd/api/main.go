package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tokenvault/internal/config"
	"tokenvault/internal/database"
	"tokenvault/internal/middleware"
	"tokenvault/internal/modules/token"
	jwtsvc "tokenvault/internal/pkg/jwt"
	"tokenvault/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRuntime()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	codec := jwtsvc.New(cfg.JWTSecret, cfg.TokenIssuer, cfg.TokenAudience)

	tokenService := token.NewService(
		tokenRepo,
		userRepo,
		codec,
		cfg.AccessTTL,
		cfg.RefreshTTL,
		cfg.RefreshTTLRemember,
		cfg.RevokedRetention,
		cfg.MaxSessionsPerUser,
	)
	tokenHandler := token.NewHandler(tokenService, nil, token.CookieConfig{
		Secure:      cfg.CookieSecure,
		SameSite:    cfg.CookieSameSite,
		RefreshPath: cfg.RefreshCookiePath,
	})

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	{
		tokenHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(codec, userRepo))
		{
			tokenHandler.RegisterProtectedRoutes(protected)
		}
	}

	addr := ":" + getEnv("PORT", "8080")
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
