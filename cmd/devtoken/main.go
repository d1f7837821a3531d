// Command devtoken mints a bearer token for local development, standing in
// for the identity provider's login flow.
//
//	go run ./cmd/devtoken -user user_123 -ttl 24h
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/course-marketplace/internal/auth"
	"github.com/sakif/course-marketplace/internal/config"
)

func main() {
	userID := flag.String("user", "", "subject of the token (required)")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		slog.Error("creating token service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tok, err := tokens.GenerateWithDuration(*userID, *ttl)
	if err != nil {
		slog.Error("signing token", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
}
