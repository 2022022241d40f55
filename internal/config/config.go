package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Ledger LedgerConfig
	Node   NodeConfig
	Auth   AuthConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	HubLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventTopic         string
	SessionIdleTimeout time.Duration
}

type LedgerConfig struct {
	Endpoint      string
	ProgramID     string
	KeypairPath   string
	SubmitTimeout time.Duration
	QueryTimeout  time.Duration
}

type NodeConfig struct {
	Port        string
	Storage     string // "memory" or "postgres"
	DSN         string
	LogFilePath string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/vault.log"),
			HubLogFilePath:     getEnv("HUB_LOG_FILE_PATH", "logs/hub.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			EventTopic:         getEnv("VAULT_EVENT_TOPIC", "vault.events"),
			SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", time.Hour),
		},
		Ledger: LedgerConfig{
			Endpoint:      getEnv("LEDGER_ENDPOINT", "http://localhost:8899"),
			ProgramID:     getEnv("LEDGER_PROGRAM_ID", "4y3Yk2ZxNMtXidf6CDwnZzvodAcUC2nZqyD3k9pscbTS"),
			KeypairPath:   getEnv("VAULT_KEYPAIR_PATH", "keys/id.json"),
			SubmitTimeout: getEnvAsDuration("LEDGER_SUBMIT_TIMEOUT", 60*time.Second),
			QueryTimeout:  getEnvAsDuration("LEDGER_QUERY_TIMEOUT", 15*time.Second),
		},
		Node: NodeConfig{
			Port:        getEnv("NODE_PORT", "8899"),
			Storage:     getEnv("NODE_STORAGE", "memory"),
			DSN:         getEnv("DB_CONNECTION_STRING", ""),
			LogFilePath: getEnv("NODE_LOG_FILE_PATH", "logs/ledgerd.log"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("90s") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
