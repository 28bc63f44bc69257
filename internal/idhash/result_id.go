package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeResultID computes a deterministic result_id using SHA256.
// Formula: SHA256(run_id|circuit_id)
// Returns hex-encoded hash (64 characters).
func ComputeResultID(
	runID string,
	circuitID string,
) string {
	data := fmt.Sprintf("%s|%s",
		runID,
		circuitID,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
