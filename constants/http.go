package constants

const (
	HeaderRequestIDKey    = "X-Request-ID"
	HeaderLoginTokenKey   = "X-Judge-JWT-Token"
	HeaderRefreshTokenKey = "X-Judge-Refresh-Token"
)

const GatewayServiceName = "OnlineJudge-Evaluator"

const (
	ContextUserClaimsKey = "X-Judge-User-Claims"
)
