package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"

	"github.com/garyjia/dmm-case-workflow/internal/config"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	httpapi "github.com/garyjia/dmm-case-workflow/internal/interfaces/http"
)

// Issues a bearer token signed with the configured secret, for local use
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	userID := flag.Int64("uid", 1, "user id")
	username := flag.String("username", "", "display name")
	role := flag.String("role", string(entity.RoleAdmin), "ADMIN, IDP_PERSONNEL, LEGAL_PERSONNEL or INSTITUTION_USER")
	institutionID := flag.Int64("institution", 0, "institution id, required for INSTITUTION_USER")
	ttl := flag.Duration("ttl", 0, "token lifetime (auth.token_ttl when zero)")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	claims := httpapi.Claims{
		UserID:   *userID,
		Username: *username,
		Role:     *role,
	}
	if *institutionID > 0 {
		claims.InstitutionID = institutionID
	}
	if _, err := claims.Actor(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid claims: %v\n", err)
		os.Exit(1)
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = cfg.Auth.TokenTTL
	}
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	token, err := httpapi.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(claims, lifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
