package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PRSnapshot tracks one open pull request: its latest known head, the
// distinct contributing identities at that head, and the cached gate result.
type PRSnapshot struct {
	ID               string    `json:"id" db:"id"`
	RepoOwner        string    `json:"repo_owner" db:"repo_owner"`
	RepoName         string    `json:"repo_name" db:"repo_name"`
	PRNumber         int       `json:"pr_number" db:"pr_number"`
	HeadSHA          string    `json:"head_sha" db:"head_sha"`
	IdentityIDs      *string   `json:"identity_ids" db:"identity_ids"` // JSON array, replaced wholesale on synchronize
	EvaluatedVersion *int      `json:"evaluated_version" db:"evaluated_version"`
	GateState        GateState `json:"gate_state" db:"gate_state"`
	PrevGateState    GateState `json:"prev_gate_state" db:"prev_gate_state"`
	GateDetail       *string   `json:"gate_detail" db:"gate_detail"` // JSON-encoded GateResult
	LastDeliveryID   *string   `json:"last_delivery_id" db:"last_delivery_id"`
	Archived         bool      `json:"archived" db:"archived"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// NewPRSnapshot creates a new PRSnapshot with a generated UUID
func NewPRSnapshot(owner, name string, number int, headSHA string) *PRSnapshot {
	now := time.Now()
	return &PRSnapshot{
		ID:            uuid.New().String(),
		RepoOwner:     owner,
		RepoName:      name,
		PRNumber:      number,
		HeadSHA:       headSHA,
		GateState:     GateStatePending,
		PrevGateState: GateStatePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Identities decodes the snapshot's identity set
func (s *PRSnapshot) Identities() []string {
	if s.IdentityIDs == nil || *s.IdentityIDs == "" {
		return nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(*s.IdentityIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// SetIdentities replaces the snapshot's identity set wholesale
func (s *PRSnapshot) SetIdentities(ids []string) error {
	if ids == nil {
		ids = []string{}
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	encoded := string(data)
	s.IdentityIDs = &encoded
	return nil
}

// SetGateResult caches an evaluation outcome on the snapshot
func (s *PRSnapshot) SetGateResult(result *GateResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	encoded := string(data)
	s.PrevGateState = s.GateState
	s.GateState = result.State
	s.GateDetail = &encoded
	s.EvaluatedVersion = &result.Version
	return nil
}

// CachedGateResult decodes the last cached evaluation, nil if never evaluated
func (s *PRSnapshot) CachedGateResult() *GateResult {
	if s.GateDetail == nil || *s.GateDetail == "" {
		return nil
	}

	var result GateResult
	if err := json.Unmarshal([]byte(*s.GateDetail), &result); err != nil {
		return nil
	}
	return &result
}
