package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port                string
	CORSAllowOrigin     []string
	DatabaseURL         string
	Env                 string
	ControlPlaneURL     string
	Namespaces          []string
	LabelSelector       string
	SpecPath            string
	HealthPath          string
	HealthCheckEnabled  bool
	HarvestInterval     time.Duration
	HarvestConcurrency  int
	FetchTimeout        time.Duration
	FetchRetries        int
	CycleDeadline       time.Duration
	SpecRetention       time.Duration
	ComplianceRulesPath string
	SynonymsPath        string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:                getEnv("PORT", "8080"),
		CORSAllowOrigin:     splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:         dbURL,
		Env:                 env,
		ControlPlaneURL:     getEnv("CONTROL_PLANE_URL", "http://localhost:8001"),
		Namespaces:          splitAndTrim(getEnv("KUBERNETES_NAMESPACES", "default")),
		LabelSelector:       getEnv("SERVICE_LABEL_SELECTOR", "service-type=spring-boot"),
		SpecPath:            getEnv("SPEC_WELL_KNOWN_PATH", "/v3/api-docs"),
		HealthPath:          getEnv("HEALTH_CHECK_PATH", "/actuator/health"),
		HealthCheckEnabled:  getEnvBool("HEALTH_CHECK_ENABLED", true),
		HarvestInterval:     getEnvDuration("HARVEST_INTERVAL", 15*time.Minute),
		HarvestConcurrency:  getEnvInt("MAX_CONCURRENT_REQUESTS", 10),
		FetchTimeout:        getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries:        getEnvInt("FETCH_RETRIES", 3),
		CycleDeadline:       getEnvDuration("CYCLE_DEADLINE", 10*time.Minute),
		SpecRetention:       getEnvDuration("SPEC_RETENTION", 720*time.Hour),
		ComplianceRulesPath: getEnv("COMPLIANCE_RULES_PATH", "configs/rules/fhir-patient.yaml"),
		SynonymsPath:        getEnv("SYNONYMS_PATH", "configs/synonyms.yaml"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		log.Printf("config env %s invalid bool: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
