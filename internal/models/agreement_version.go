package models

import (
	"time"

	"github.com/google/uuid"
)

// AgreementClass distinguishes individual from entity agreement documents
type AgreementClass string

const (
	AgreementClassIndividual AgreementClass = "individual"
	AgreementClassEntity     AgreementClass = "entity"
)

// AgreementVersion is an immutable snapshot of one published CLA revision.
// New versions are appended, never edited; the current pointer advances monotonically.
type AgreementVersion struct {
	ID          string         `json:"id" db:"id"`
	Version     int            `json:"version" db:"version"`
	Class       AgreementClass `json:"class" db:"class"`
	TextSHA     string         `json:"text_sha" db:"text_sha"`
	EffectiveAt time.Time      `json:"effective_at" db:"effective_at"`
	IsCurrent   bool           `json:"is_current" db:"is_current"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// NewAgreementVersion creates a new AgreementVersion with a generated UUID
func NewAgreementVersion(version int, class AgreementClass, textSHA string) *AgreementVersion {
	now := time.Now()
	return &AgreementVersion{
		ID:          uuid.New().String(),
		Version:     version,
		Class:       class,
		TextSHA:     textSHA,
		EffectiveAt: now,
		CreatedAt:   now,
	}
}
