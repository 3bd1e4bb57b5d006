package domain

import (
	"fmt"
	"math/rand"
	"strings"
)

// GuestName generates the default identifier handed to users who never set
// a name.
func GuestName() string {
	return fmt.Sprintf("Player#%04d", rand.Intn(10000))
}

// SanitizeTopic reduces a topic name to the alphanumeric/underscore form
// used in persisted keys, so "General Knowledge" and "General_Knowledge"
// share one tally.
func SanitizeTopic(topic string) string {
	var b strings.Builder
	for _, r := range topic {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-':
			b.WriteRune('_')
		}
	}
	return b.String()
}
