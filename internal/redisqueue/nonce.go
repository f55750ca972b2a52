package redisqueue

import "github.com/google/uuid"

// nonce returns a short unique suffix so two requests admitted in the
// same millisecond don't collide as sorted-set members.
func nonce() string {
	return uuid.NewString()[:8]
}
