package models

// GateState is the aggregate merge decision for a pull request
type GateState string

const (
	GateStatePending        GateState = "pending"
	GateStateAllowed        GateState = "allowed"
	GateStateBlockedMissing GateState = "blocked_missing"
	GateStateBlockedStale   GateState = "blocked_stale"
)

// GateResult is the computed allow/block decision for one pull request.
// It is always derived from current signature records and the snapshot's
// identity set, never hand-edited.
type GateResult struct {
	State GateState `json:"state"`

	// MissingIdentities never signed the current agreement version.
	MissingIdentities []string `json:"missing_identities,omitempty"`

	// StaleIdentities signed an entity agreement whose affiliation is
	// unverified, expired, or revoked.
	StaleIdentities []string `json:"stale_identities,omitempty"`

	// Version is the agreement version the result was computed against.
	Version int `json:"version"`
}

// Allowed checks if the gate permits merging
func (g *GateResult) Allowed() bool {
	return g.State == GateStateAllowed
}

// Blocked checks if the gate refuses merging
func (g *GateResult) Blocked() bool {
	return g.State == GateStateBlockedMissing || g.State == GateStateBlockedStale
}
