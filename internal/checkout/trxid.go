package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	idEntropyBytes = 8
	maxIDAttempts  = 5
)

// generateID produces a transaction id from the current millisecond
// timestamp plus a random hex suffix, verified unused against the store.
// Attempts are capped so a pathological collision rate fails instead of
// spinning.
func (s *Service) generateID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		buf := make([]byte, idEntropyBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading entropy: %w", err)
		}

		id := strconv.FormatInt(time.Now().UnixMilli(), 10) + strings.ToUpper(hex.EncodeToString(buf))

		exists, err := s.store.TransactionExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("checking transaction id: %w", err)
		}

		if !exists {
			return id, nil
		}
	}

	return "", ErrIDExhausted
}
