package obs

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewFlowID generates a unique identifier for a fetch→backtest chain
// triggered from the same request.
func NewFlowID() string {
	return newID("flow")
}

func newID(prefix string) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
