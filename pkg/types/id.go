package types

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// GenerateRunID generates a unique synthesis run ID with prefix
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", ksuid.New().String())
}
