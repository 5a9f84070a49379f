package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType = "Content-Type"
	HeaderXRequestID  = "X-Request-ID"

	// Context keys
	ContextKeyRequestID = "request_id"

	// Database table names
	TablePlans        = "plans"
	TableEntitlements = "entitlements"
	TableUsageEvents  = "usage_events"

	// Legacy storage sentinel for an unlimited limit or lifetime validity
	LegacyUnlimited = -1

	// Usage listing bounds
	DefaultUsageListLimit = 100
	MaxUsageListLimit     = 1000

	// Redis channels and key prefixes
	ChannelEntitlementChanged = "entitlement.changed"
	CacheKeyEntitlementPrefix = "entitlement:"
)
