package pkg

import "github.com/google/uuid"

// GenerateSessionID - generates an id for one client process, sent on every connection attempt.
func GenerateSessionID() string {
	return uuid.NewString()
}
