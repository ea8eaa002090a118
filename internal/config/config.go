package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultJWTTTL          = "24h"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultRecheckInterval = "5m"
	defaultStaleInterval   = "1h"
	defaultStaleAfter      = "30m"
	defaultStalePolicy     = StalePolicyFlag
	defaultDatabaseURL     = "bookingpay.db"
	defaultListenAddr      = ":8080"
)

const (
	// StalePolicyFlag only logs abandoned NEW bookings.
	StalePolicyFlag = "flag"
	// StalePolicyCancel cancels them with the same guarded transition
	// as a user-initiated cancel.
	StalePolicyCancel = "cancel"
)

type Runtime struct {
	AppEnv          string
	ListenAddr      string
	DatabaseURL     string
	JWTSecret       string
	JWTTTL          time.Duration
	RecheckInterval time.Duration
	StaleInterval   time.Duration
	StaleAfter      time.Duration
	StalePolicy     string
}

func Load() (*Runtime, error) {
	cfg := &Runtime{
		AppEnv:      envOrDefault("APP_ENV", "development"),
		ListenAddr:  envOrDefault("LISTEN_ADDR", defaultListenAddr),
		DatabaseURL: envOrDefault("DATABASE_URL", defaultDatabaseURL),
		JWTSecret:   envOrDefault("JWT_SECRET", defaultJWTSecret),
		StalePolicy: strings.ToLower(envOrDefault("STALE_BOOKING_POLICY", defaultStalePolicy)),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.RecheckInterval, err = parseDuration("PAYMENT_RECHECK_INTERVAL", defaultRecheckInterval); err != nil {
		return nil, err
	}
	if cfg.StaleInterval, err = parseDuration("STALE_BOOKING_INTERVAL", defaultStaleInterval); err != nil {
		return nil, err
	}
	if cfg.StaleAfter, err = parseDuration("STALE_BOOKING_AFTER", defaultStaleAfter); err != nil {
		return nil, err
	}

	if cfg.StalePolicy != StalePolicyFlag && cfg.StalePolicy != StalePolicyCancel {
		return nil, fmt.Errorf("STALE_BOOKING_POLICY must be %q or %q, got %q",
			StalePolicyFlag, StalePolicyCancel, cfg.StalePolicy)
	}
	if cfg.AppEnv == "production" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func parseDuration(name, def string) (time.Duration, error) {
	raw := envOrDefault(name, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return d, nil
}

func envOrDefault(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
