package ports

type AuthMetrics interface {
	LoginAttempt(result string)
	TokenRefresh(result string)
	SessionRevoked(reason string)
	CleanupRun(result string)
	CleanupItems(kind string, count int)
}
