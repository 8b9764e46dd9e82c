package shared

// Keys used with fiber's c.Locals.
const (
	UserID    = "user_id"
	UserRole  = "user_role"
	UserEmail = "user_email"
	SessionID = "session_id"
	RequestID = "requestid"
)

const (
	PaymentUSDT = "USDT"
	PaymentUSDC = "USDC"
	PaymentETH  = "ETH"
	PaymentBNB  = "BNB"

	HeaderCache = "X-Cache"
	CacheHit    = "HIT"
	CacheMiss   = "MISS"
)
