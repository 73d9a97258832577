package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"eatme/pkg/client"
	"eatme/pkg/logger"

	"github.com/joho/godotenv"
)

var (
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	Port string

	JWTSecret            string
	PaymentWebhookSecret string
	CheckoutSealKey      string
	CheckoutTokenTTL     time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BirthdayBonusPoints      int
	CartRedemptionPolicy     string
	CartFlatRedemptionPoints int
	Currency                 string
	PricingRetryBackoff      time.Duration
	PhoneRegions             []string

	SMSBaseURL  string
	SMSAPIKey   string
	SMSSenderID string
	SMSTimeout  time.Duration
	AdminPhone  string

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),
		RedisTLS:      getEnvBool(EnvRedisTLS, false),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret:            getEnvStr(EnvJWTSecret, ""),
		PaymentWebhookSecret: getEnvStr(EnvPaymentWebhookSecret, ""),
		CheckoutSealKey:      getEnvStr(EnvCheckoutSealKey, ""),
		CheckoutTokenTTL:     getEnvDuration(EnvCheckoutTokenTTL, DefaultCheckoutTokenTTL),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BirthdayBonusPoints:      getEnvNum(EnvBirthdayBonusPoints, DefaultBirthdayBonusPoints),
		CartRedemptionPolicy:     strings.ToLower(getEnvStr(EnvCartRedemptionPolicy, DefaultCartRedemptionPolicy)),
		CartFlatRedemptionPoints: getEnvNum(EnvCartFlatRedemptionPoints, DefaultCartFlatRedemptionPoints),
		Currency:                 strings.ToUpper(getEnvStr(EnvCurrency, DefaultCurrency)),
		PricingRetryBackoff:      getEnvDuration(EnvPricingRetryBackoff, DefaultPricingRetryBackoff),
		PhoneRegions:             splitList(getEnvStr(EnvPhoneRegions, DefaultPhoneRegions)),

		SMSBaseURL:  getEnvStr(EnvSMSBaseURL, ""),
		SMSAPIKey:   getEnvStr(EnvSMSAPIKey, ""),
		SMSSenderID: getEnvStr(EnvSMSSenderID, DefaultSMSSenderID),
		SMSTimeout:  getEnvDuration(EnvSMSTimeout, DefaultSMSTimeout),
		AdminPhone:  getEnvStr(EnvAdminPhone, ""),

		S3Endpoint:      getEnvStr(EnvS3Endpoint, ""),
		S3Region:        getEnvStr(EnvS3Region, DefaultS3Region),
		S3AccessKey:     getEnvStr(EnvS3AccessKey, ""),
		S3SecretKey:     getEnvStr(EnvS3SecretKey, ""),
		S3Bucket:        getEnvStr(EnvS3Bucket, ""),
		S3PublicBaseURL: getEnvStr(EnvS3PublicBaseURL, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoDatabaseName, cfg.MongoConnTimeout)
}

// SetRedis connects to Redis. On failure the client stays nil and callers fall back to memory.
func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, client.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TLS:      cfg.RedisTLS,
	})
}

func (cfg *Config) SMSEnabled() bool {
	return cfg.SMSBaseURL != "" && cfg.SMSAPIKey != ""
}

func (cfg *Config) BlobStorageEnabled() bool {
	return cfg.S3Bucket != "" && cfg.S3AccessKey != "" && cfg.S3SecretKey != ""
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret cannot be empty")
	}
	if cfg.CheckoutSealKey != "" && len(cfg.CheckoutSealKey) < 32 {
		errors = append(errors, "CheckoutSealKey must be at least 32 characters")
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"PricingRetryBackoff", cfg.PricingRetryBackoff},
		{"SMSTimeout", cfg.SMSTimeout},
		{"CheckoutTokenTTL", cfg.CheckoutTokenTTL},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.BirthdayBonusPoints <= 0 {
		errors = append(errors, fmt.Sprintf("BirthdayBonusPoints must be positive, got: %d", cfg.BirthdayBonusPoints))
	}
	if cfg.CartRedemptionPolicy != RedemptionFlat && cfg.CartRedemptionPolicy != RedemptionBalance {
		errors = append(errors, fmt.Sprintf("CartRedemptionPolicy must be one of [%s, %s], got: %s", RedemptionFlat, RedemptionBalance, cfg.CartRedemptionPolicy))
	}
	if cfg.CartFlatRedemptionPoints < 0 {
		errors = append(errors, fmt.Sprintf("CartFlatRedemptionPoints cannot be negative, got: %d", cfg.CartFlatRedemptionPoints))
	}
	if len(cfg.Currency) != 3 {
		errors = append(errors, fmt.Sprintf("Currency must be a 3-letter ISO code, got: %s", cfg.Currency))
	}
	if len(cfg.PhoneRegions) == 0 {
		errors = append(errors, "PhoneRegions must list at least one region")
	}

	if (cfg.SMSBaseURL == "") != (cfg.SMSAPIKey == "") {
		errors = append(errors, "SMSBaseURL and SMSAPIKey must be set together")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"redis_tls", cfg.RedisTLS,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"payment_webhook_secret_set", cfg.PaymentWebhookSecret != "",
		"checkout_seal_key_set", cfg.CheckoutSealKey != "",
		"checkout_token_ttl", cfg.CheckoutTokenTTL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"birthday_bonus_points", cfg.BirthdayBonusPoints,
		"cart_redemption_policy", cfg.CartRedemptionPolicy,
		"cart_flat_redemption_points", cfg.CartFlatRedemptionPoints,
		"currency", cfg.Currency,
		"phone_regions", cfg.PhoneRegions,
		"sms_enabled", cfg.SMSEnabled(),
		"blob_storage_enabled", cfg.BlobStorageEnabled(),
	)
}

func (cfg *Config) GracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	cfg.Client.GracefulShutdown(ctx, cfg.Log)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
