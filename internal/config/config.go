package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"migration-renderer/internal/jitter"
)

type Config struct {
	DatasetPath string
	DatabaseURL string `validate:"required_without=DatasetPath"`

	NATSURL           string `validate:"required,url"`
	NATSSubjectPrefix string `validate:"required"`
	LogNATSSubjects   bool

	FrameInterval   time.Duration `validate:"gt=0"`
	SpeedMultiplier float64       `validate:"gt=0"`
	TrailLength     float64       `validate:"gt=0"`
	Duration        float64       `validate:"gt=0"`
	FadeTrail       bool
	Layer           string `validate:"oneof=scatter trail"`

	// RNGSeed seeds the expansion RNG. SeedFromEnv is false when it was
	// derived from the clock.
	RNGSeed         uint64
	SeedFromEnv     bool
	TimestampPolicy jitter.Policy
	UpdateWorkers   int `validate:"gte=1,lte=256"`

	MetricsAddr string
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.DatasetPath = strings.TrimSpace(os.Getenv("DATASET_PATH"))

	// Prefer DATABASE_URL / PG_DSN, else build from PG* vars when PGDATABASE is set
	cfg.DatabaseURL = firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if cfg.DatabaseURL == "" {
		if db := os.Getenv("PGDATABASE"); db != "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
	}

	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "migration")
	cfg.LogNATSSubjects = parseBool(os.Getenv("LOG_NATS_SUBJECTS"), false)

	// Frame interval
	if v := os.Getenv("FRAME_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid FRAME_INTERVAL_MS: %q", v)
		}
		cfg.FrameInterval = time.Duration(ms) * time.Millisecond
	} else {
		cfg.FrameInterval = 33 * time.Millisecond
	}

	var err error
	if cfg.SpeedMultiplier, err = positiveFloat("SPEED_MULTIPLIER", 10); err != nil {
		return nil, err
	}
	if cfg.TrailLength, err = positiveFloat("TRAIL_LENGTH", 120); err != nil {
		return nil, err
	}
	if cfg.Duration, err = positiveFloat("DURATION", 2050); err != nil {
		return nil, err
	}

	if v := os.Getenv("FADE_TRAIL"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid FADE_TRAIL: %q", v)
		}
		cfg.FadeTrail = b
	} else {
		cfg.FadeTrail = true
	}

	cfg.Layer = strings.ToLower(getenvDefault("LAYER", "scatter"))

	// Expansion seed; logged at startup so a run can be replayed
	if v := os.Getenv("RNG_SEED"); v != "" {
		seed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RNG_SEED: %q", v)
		}
		cfg.RNGSeed = seed
		cfg.SeedFromEnv = true
	} else {
		cfg.RNGSeed = uint64(time.Now().UnixNano())
	}

	if cfg.TimestampPolicy, err = jitter.ParsePolicy(os.Getenv("TIMESTAMP_POLICY")); err != nil {
		return nil, fmt.Errorf("invalid TIMESTAMP_POLICY: %w", err)
	}

	if v := os.Getenv("UPDATE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid UPDATE_WORKERS: %q", v)
		}
		cfg.UpdateWorkers = n
	} else {
		cfg.UpdateWorkers = 1
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func positiveFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func parseBool(v string, def bool) bool {
	if v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
