package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(project_id|generated_at|circuit_id_1,circuit_id_2,...)
// Circuit IDs keep input order. Returns hex-encoded hash (64 characters).
func ComputeRunID(
	projectID string,
	generatedAt int64,
	circuitIDs []string,
) string {
	data := fmt.Sprintf("%s|%d|%s",
		projectID,
		generatedAt,
		strings.Join(circuitIDs, ","),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
