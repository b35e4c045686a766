package upload

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	base36    = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLen = 6
)

// NewName generates a collision-resistant artifact name of the form
// img_<unix-millis>_<6 random base36 chars>. Safe to call from concurrent
// requests without coordination: the random suffix makes same-millisecond
// collisions astronomically unlikely at expected rates.
func NewName() (string, error) {
	suffix := make([]byte, suffixLen)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36))))
		if err != nil {
			return "", fmt.Errorf("random suffix: %w", err)
		}
		suffix[i] = base36[n.Int64()]
	}
	return fmt.Sprintf("img_%d_%s", time.Now().UnixMilli(), suffix), nil
}
