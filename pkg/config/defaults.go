package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "eatme"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultCheckoutTokenTTL = 1 * time.Hour

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBirthdayBonusPoints      = 50
	DefaultCartRedemptionPolicy     = RedemptionFlat
	DefaultCartFlatRedemptionPoints = 10
	DefaultCurrency                 = "GHS"
	DefaultPricingRetryBackoff      = 5 * time.Second
	DefaultPhoneRegions             = "GH,NG"

	DefaultSMSSenderID = "EatMe"
	DefaultSMSTimeout  = 10 * time.Second

	DefaultS3Region = "auto"
)

const (
	RedemptionFlat    = "flat"
	RedemptionBalance = "balance"
)
