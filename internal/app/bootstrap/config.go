package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nischalstumbeti/contestzen/internal/domain"
)

type Config struct {
	ServiceID   string
	LogLevel    string
	AutoMigrate bool

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaPrefix  string
	MaxDBConns   int32

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration

	JWTKeyID          string
	JWTIssuer         string
	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTAllowEphemeral bool
	BcryptRounds      int

	ContestName            string
	PublicBaseURL          string
	DefaultRedirectURI     string
	AllowedOrigins         []string
	AllowedRedirectOrigins []string

	TokenTTL             time.Duration
	SessionTTL           time.Duration
	SessionAbsoluteTTL   time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
	OTPTTL               time.Duration
	OTPIssueLimit        int
	OTPVerifyLimit       int
	OTPRateWindow        time.Duration
	MagicLinkTTL         time.Duration
	AuthRatePerMinute    int
	AuthBurst            int

	TransitionPolicy     domain.TransitionPolicy
	SettingsCacheTTL     time.Duration
	DefaultUploadEnabled bool
	AnalyticsDays        int

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
	CodeReapInterval   time.Duration
	CodeReapBatchSize  int
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaPrefix  string   `yaml:"kafka_topic_prefix"`
		SMTPHost     string   `yaml:"smtp_host"`
		SMTPPort     int      `yaml:"smtp_port"`
		SMTPFrom     string   `yaml:"smtp_from"`
	} `yaml:"dependencies"`
	Contest struct {
		Name                   string   `yaml:"name"`
		PublicBaseURL          string   `yaml:"public_base_url"`
		DefaultRedirectURI     string   `yaml:"default_redirect_uri"`
		AllowedOrigins         []string `yaml:"allowed_origins"`
		AllowedRedirectOrigins []string `yaml:"allowed_redirect_origins"`
		TransitionPolicy       string   `yaml:"submission_transition_policy"`
		DefaultUploadEnabled   *bool    `yaml:"default_upload_enabled"`
	} `yaml:"contest"`
	Auth struct {
		OTPTTLMinutes     int `yaml:"otp_ttl_minutes"`
		SessionTTLHours   int `yaml:"session_ttl_hours"`
		AuthRatePerMinute int `yaml:"auth_rate_per_minute"`
		AuthBurst         int `yaml:"auth_burst"`
	} `yaml:"auth"`
}

// LoadConfig applies defaults, then the YAML file at path, then a .env file, then the process
// environment. A missing YAML or .env file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "contestzen",
		LogLevel:             "info",
		AutoMigrate:          true,
		HTTPPort:             8080,
		GRPCPort:             9090,
		MaxDBConns:           20,
		KafkaPrefix:          "contestzen.",
		SMTPPort:             587,
		SMTPTimeout:          15 * time.Second,
		JWTKeyID:             "contestzen-1",
		JWTIssuer:            "contestzen",
		BcryptRounds:         12,
		ContestName:          "ContestZen",
		PublicBaseURL:        "http://localhost:8080",
		TokenTTL:             time.Hour,
		SessionTTL:           7 * 24 * time.Hour,
		SessionAbsoluteTTL:   30 * 24 * time.Hour,
		FailedLoginThreshold: 5,
		LockoutDuration:      15 * time.Minute,
		OTPTTL:               domain.OTPTTL,
		OTPIssueLimit:        5,
		OTPVerifyLimit:       5,
		OTPRateWindow:        10 * time.Minute,
		MagicLinkTTL:         10 * time.Minute,
		AuthRatePerMinute:    20,
		AuthBurst:            5,
		TransitionPolicy:     domain.TransitionPermissive,
		SettingsCacheTTL:     30 * time.Second,
		DefaultUploadEnabled: true,
		AnalyticsDays:        30,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		OutboxClaimTTL:       30 * time.Second,
		OutboxMaxRetries:     10,
		CodeReapInterval:     10 * time.Minute,
		CodeReapBatchSize:    500,
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyConfigFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := godotenv.Load(envOrDefault("CONTESTZEN_ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	applyEnv(&cfg)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if _, err := domain.ParseTransitionPolicy(string(cfg.TransitionPolicy)); err != nil {
		return Config{}, fmt.Errorf("SUBMISSION_TRANSITION_POLICY: %w", err)
	}
	if cfg.JWTPrivateKeyPEM == "" && !cfg.JWTAllowEphemeral {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM (set JWT_ALLOW_EPHEMERAL=true for local runs)")
	}
	return cfg, nil
}

func applyConfigFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
	}
	if f.Dependencies.KafkaPrefix != "" {
		cfg.KafkaPrefix = f.Dependencies.KafkaPrefix
	}
	if f.Dependencies.SMTPHost != "" {
		cfg.SMTPHost = f.Dependencies.SMTPHost
	}
	if f.Dependencies.SMTPPort > 0 {
		cfg.SMTPPort = f.Dependencies.SMTPPort
	}
	if f.Dependencies.SMTPFrom != "" {
		cfg.SMTPFrom = f.Dependencies.SMTPFrom
	}
	if f.Contest.Name != "" {
		cfg.ContestName = f.Contest.Name
	}
	if f.Contest.PublicBaseURL != "" {
		cfg.PublicBaseURL = f.Contest.PublicBaseURL
	}
	if f.Contest.DefaultRedirectURI != "" {
		cfg.DefaultRedirectURI = f.Contest.DefaultRedirectURI
	}
	if len(f.Contest.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = trimNonEmpty(f.Contest.AllowedOrigins)
	}
	if len(f.Contest.AllowedRedirectOrigins) > 0 {
		cfg.AllowedRedirectOrigins = trimNonEmpty(f.Contest.AllowedRedirectOrigins)
	}
	if f.Contest.TransitionPolicy != "" {
		cfg.TransitionPolicy = domain.TransitionPolicy(f.Contest.TransitionPolicy)
	}
	if f.Contest.DefaultUploadEnabled != nil {
		cfg.DefaultUploadEnabled = *f.Contest.DefaultUploadEnabled
	}
	if f.Auth.OTPTTLMinutes > 0 {
		cfg.OTPTTL = time.Duration(f.Auth.OTPTTLMinutes) * time.Minute
	}
	if f.Auth.SessionTTLHours > 0 {
		cfg.SessionTTL = time.Duration(f.Auth.SessionTTLHours) * time.Hour
	}
	if f.Auth.AuthRatePerMinute > 0 {
		cfg.AuthRatePerMinute = f.Auth.AuthRatePerMinute
	}
	if f.Auth.AuthBurst > 0 {
		cfg.AuthBurst = f.Auth.AuthBurst
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.AutoMigrate = envBool("AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaPrefix = envOrDefault("KAFKA_TOPIC_PREFIX", cfg.KafkaPrefix)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = envOrDefault("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = envOrDefault("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPFrom = envOrDefault("SMTP_FROM", cfg.SMTPFrom)
	cfg.SMTPTimeout = time.Duration(envInt("SMTP_TIMEOUT_SECONDS", int(cfg.SMTPTimeout.Seconds()))) * time.Second

	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTAllowEphemeral = envBool("JWT_ALLOW_EPHEMERAL", cfg.JWTAllowEphemeral)
	cfg.BcryptRounds = envInt("BCRYPT_ROUNDS", cfg.BcryptRounds)

	cfg.ContestName = envOrDefault("CONTEST_NAME", cfg.ContestName)
	cfg.PublicBaseURL = envOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.DefaultRedirectURI = envOrDefault("DEFAULT_REDIRECT_URI", cfg.DefaultRedirectURI)
	cfg.AllowedOrigins = envCSV("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.AllowedRedirectOrigins = envCSV("ALLOWED_REDIRECT_ORIGINS", cfg.AllowedRedirectOrigins)

	cfg.TokenTTL = time.Duration(envInt("TOKEN_TTL_MINUTES", int(cfg.TokenTTL.Minutes()))) * time.Minute
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_HOURS", int(cfg.SessionTTL.Hours()))) * time.Hour
	cfg.SessionAbsoluteTTL = time.Duration(envInt("SESSION_ABSOLUTE_TTL_HOURS", int(cfg.SessionAbsoluteTTL.Hours()))) * time.Hour
	cfg.FailedLoginThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.FailedLoginThreshold)
	cfg.LockoutDuration = time.Duration(envInt("LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute
	cfg.OTPTTL = time.Duration(envInt("OTP_TTL_MINUTES", int(cfg.OTPTTL.Minutes()))) * time.Minute
	cfg.OTPIssueLimit = envInt("OTP_ISSUE_LIMIT", cfg.OTPIssueLimit)
	cfg.OTPVerifyLimit = envInt("OTP_VERIFY_LIMIT", cfg.OTPVerifyLimit)
	cfg.OTPRateWindow = time.Duration(envInt("OTP_RATE_WINDOW_MINUTES", int(cfg.OTPRateWindow.Minutes()))) * time.Minute
	cfg.MagicLinkTTL = time.Duration(envInt("MAGIC_LINK_TTL_MINUTES", int(cfg.MagicLinkTTL.Minutes()))) * time.Minute
	cfg.AuthRatePerMinute = envInt("AUTH_RATE_PER_MINUTE", cfg.AuthRatePerMinute)
	cfg.AuthBurst = envInt("AUTH_RATE_BURST", cfg.AuthBurst)

	cfg.TransitionPolicy = domain.TransitionPolicy(envOrDefault("SUBMISSION_TRANSITION_POLICY", string(cfg.TransitionPolicy)))
	cfg.SettingsCacheTTL = time.Duration(envInt("SETTINGS_CACHE_SECONDS", int(cfg.SettingsCacheTTL.Seconds()))) * time.Second
	cfg.DefaultUploadEnabled = envBool("DEFAULT_UPLOAD_ENABLED", cfg.DefaultUploadEnabled)
	cfg.AnalyticsDays = envInt("ANALYTICS_DAYS", cfg.AnalyticsDays)

	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.CodeReapInterval = time.Duration(envInt("CODE_REAP_MINUTES", int(cfg.CodeReapInterval.Minutes()))) * time.Minute
	cfg.CodeReapBatchSize = envInt("CODE_REAP_BATCH_SIZE", cfg.CodeReapBatchSize)
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
