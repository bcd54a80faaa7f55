package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Chain connectivity
	ChainRPCURL          string
	ChainID              int64
	RegulatorPrivateKey  string
	TokenContractAddr    string
	RegistryContractAddr string
	LedgerConfirmTimeout time.Duration
	// When set, transfer and retire proofs supplied by clients are checked
	// against the chain before the record store is updated.
	VerifyTransferProof bool

	// Document upload handling
	UploadDir     string
	MaxUploadSize int64

	// Rate limiting for login attempts, in limiter format (e.g. "10-M")
	LoginRateLimit string

	// Analytics (optional; empty key disables)
	PosthogAPIKey   string
	PosthogEndpoint string

	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and a .env file
// if present. Environment variables take precedence over .env values.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRY_DURATION", "24h")
	viper.SetDefault("JWT_ISSUER", "carbon-registry-app")
	viper.SetDefault("CHAIN_RPC_URL", "http://localhost:8545")
	viper.SetDefault("CHAIN_ID", 1337)
	viper.SetDefault("REGULATOR_PRIVATE_KEY", "")
	viper.SetDefault("TOKEN_CONTRACT_ADDRESS", "")
	viper.SetDefault("REGISTRY_CONTRACT_ADDRESS", "")
	viper.SetDefault("LEDGER_CONFIRM_TIMEOUT", "2m")
	viper.SetDefault("VERIFY_TRANSFER_PROOF", false)
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("MAX_UPLOAD_SIZE", 10<<20)
	viper.SetDefault("LOGIN_RATE_LIMIT", "10-M")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://app.posthog.com")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "insecure-development-secret-change-me"
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = 24 * time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry)
	}
	cfg.JWTExpiryDuration = jwtExpiry
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.ChainRPCURL = viper.GetString("CHAIN_RPC_URL")
	cfg.ChainID = viper.GetInt64("CHAIN_ID")
	cfg.RegulatorPrivateKey = viper.GetString("REGULATOR_PRIVATE_KEY")
	cfg.TokenContractAddr = viper.GetString("TOKEN_CONTRACT_ADDRESS")
	cfg.RegistryContractAddr = viper.GetString("REGISTRY_CONTRACT_ADDRESS")

	confirmTimeoutStr := viper.GetString("LEDGER_CONFIRM_TIMEOUT")
	confirmTimeout, err := time.ParseDuration(confirmTimeoutStr)
	if err != nil {
		confirmTimeout = 2 * time.Minute
		log.Printf("Warning: Invalid value for LEDGER_CONFIRM_TIMEOUT ('%s'). Defaulting to %s.\n", confirmTimeoutStr, confirmTimeout)
	}
	cfg.LedgerConfirmTimeout = confirmTimeout
	cfg.VerifyTransferProof = viper.GetBool("VERIFY_TRANSFER_PROOF")

	cfg.UploadDir = viper.GetString("UPLOAD_DIR")
	cfg.MaxUploadSize = viper.GetInt64("MAX_UPLOAD_SIZE")
	cfg.LoginRateLimit = viper.GetString("LOGIN_RATE_LIMIT")

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	cfg.CORSAllowedOrigins = viper.GetStringSlice("CORS_ALLOWED_ORIGINS")

	return cfg, nil
}
