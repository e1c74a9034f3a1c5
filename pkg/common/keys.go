package common

import "fmt"

var (
	// Pending authorization keys
	authPrefix  string = "auth"
	authPending string = "auth:pending:%s" // correlationToken

	// Session keys
	sessionPrefix string = "session"
	sessionLock   string = "session:lock:%s" // userId

	// Gateway keys
	gatewayPrefix   string = "gateway"
	gatewayInitLock string = "gateway:init:%s:lock" // name
)

var Keys = &redisKeys{}

type redisKeys struct{}

// Pending authorization keys
func (rk *redisKeys) AuthPrefix() string {
	return authPrefix
}

func (rk *redisKeys) AuthPending(correlationToken string) string {
	return fmt.Sprintf(authPending, correlationToken)
}

// Session keys
func (rk *redisKeys) SessionPrefix() string {
	return sessionPrefix
}

func (rk *redisKeys) SessionLock(userId string) string {
	return fmt.Sprintf(sessionLock, userId)
}

// Gateway keys
func (rk *redisKeys) GatewayPrefix() string {
	return gatewayPrefix
}

func (rk *redisKeys) GatewayInitLock(name string) string {
	return fmt.Sprintf(gatewayInitLock, name)
}
