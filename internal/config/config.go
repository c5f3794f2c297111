package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// Empty disables the quiz read cache.
	RedisAddr string

	// Empty disables AI generation; the template fallback still works.
	OpenAIKey   string
	OpenAIModel string

	// Overall deadline for one AI generation call, seconds.
	GenerationTimeoutSec int

	AuthHMACSecret  string
	AdminUser       string
	AdminPassHash   string // bcrypt
	LearnerUser     string
	LearnerPassHash string // bcrypt

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:             addr,
		DBDriver:             envOr("DB_DRIVER", "sqlite"),
		DBDSN:                envOr("DB_DSN", ""),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		OpenAIKey:            os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:          envOr("OPENAI_MODEL", ""),
		GenerationTimeoutSec: envInt("GENERATION_TIMEOUT_SEC", 90),
		AuthHMACSecret:       envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:            envOr("ADMIN_USER", "admin"),
		AdminPassHash:        envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		LearnerUser:          envOr("LEARNER_USER", "learner"),
		LearnerPassHash:      envOr("LEARNER_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		CORSOrigins:          csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
