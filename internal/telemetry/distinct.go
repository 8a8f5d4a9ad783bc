package telemetry

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

// getDistinctId returns a stable anonymous id for this machine. The raw
// machine id never leaves the host; only its app-specific hash does.
func getDistinctId() string {
	id, err := machineid.ProtectedID("cargo-runner")
	if err != nil || id == "" {
		return uuid.NewString()
	}
	return id
}
