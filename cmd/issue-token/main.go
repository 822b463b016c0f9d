// Command issue-token mints a bearer token for a user id, signed with the
// backend's configured secret. Operators hand the token to the client's
// cloud.token setting.
//
// Usage: issue-token <user-id>
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/heartmarshall/tilawah/internal/app"
	"github.com/heartmarshall/tilawah/internal/auth"
	"github.com/heartmarshall/tilawah/internal/config"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: issue-token <user-id>")
		os.Exit(2)
	}
	userID := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if len(cfg.Auth.JWTSecret) < 32 {
		log.Fatalf("auth.jwt_secret must be at least 32 characters")
	}

	logger := app.NewLogger(cfg.Log)

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL).GenerateAccessToken(userID)
	if err != nil {
		logger.Error("sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("token issued", slog.String("user_id", userID), slog.Duration("ttl", cfg.Auth.AccessTokenTTL))
	fmt.Println(token)
}
