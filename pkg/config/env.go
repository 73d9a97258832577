package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvRedisTLS      = "REDIS_TLS"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret            = "JWT_SECRET"
	EnvPaymentWebhookSecret = "PAYMENT_WEBHOOK_SECRET"
	EnvCheckoutSealKey      = "CHECKOUT_SEAL_KEY"
	EnvCheckoutTokenTTL     = "CHECKOUT_TOKEN_TTL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBirthdayBonusPoints      = "BIRTHDAY_BONUS_POINTS"
	EnvCartRedemptionPolicy     = "CART_REDEMPTION_POLICY"
	EnvCartFlatRedemptionPoints = "CART_FLAT_REDEMPTION_POINTS"
	EnvCurrency                 = "CURRENCY"
	EnvPricingRetryBackoff      = "PRICING_RETRY_BACKOFF"
	EnvPhoneRegions             = "PHONE_REGIONS"

	EnvSMSBaseURL  = "SMS_BASE_URL"
	EnvSMSAPIKey   = "SMS_API_KEY"
	EnvSMSSenderID = "SMS_SENDER_ID"
	EnvSMSTimeout  = "SMS_TIMEOUT"
	EnvAdminPhone  = "ADMIN_PHONE"

	EnvS3Endpoint      = "S3_ENDPOINT"
	EnvS3Region        = "S3_REGION"
	EnvS3AccessKey     = "S3_ACCESS_KEY"
	EnvS3SecretKey     = "S3_SECRET_KEY"
	EnvS3Bucket        = "S3_BUCKET"
	EnvS3PublicBaseURL = "S3_PUBLIC_BASE_URL"
)
