package services

import (
	"database/sql"
	"fmt"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/repositories"
)

// AgreementService is the durable store of agreement versions and
// signature records. It exclusively owns both tables.
type AgreementService struct {
	versionRepo   *repositories.AgreementVersionRepository
	signatureRepo *repositories.SignatureRepository

	// grandfather keeps signatures for prior versions valid against the
	// current one. Configurable policy, off by default.
	grandfather bool
}

func NewAgreementService(
	versionRepo *repositories.AgreementVersionRepository,
	signatureRepo *repositories.SignatureRepository,
	grandfather bool,
) *AgreementService {
	return &AgreementService{
		versionRepo:   versionRepo,
		signatureRepo: signatureRepo,
		grandfather:   grandfather,
	}
}

// CurrentVersion returns the version the current pointer designates
func (s *AgreementService) CurrentVersion() (*models.AgreementVersion, error) {
	return s.versionRepo.GetCurrent()
}

// VersionByNumber returns the published version with that number
func (s *AgreementService) VersionByNumber(version int) (*models.AgreementVersion, error) {
	return s.versionRepo.GetByVersion(version)
}

// PublishVersion appends a new agreement version and advances the current
// pointer. Existing signature records are never mutated; previously allowed
// pull requests with unmigrated signers flip to blocked on next evaluation.
func (s *AgreementService) PublishVersion(class models.AgreementClass, textSHA string) (*models.AgreementVersion, error) {
	return s.versionRepo.Publish(class, textSHA)
}

// RecordSignature records one identity accepting one agreement version.
// Re-signing the same version is a no-op returning the existing record.
// Signing a superseded version still succeeds as a historical fact, but the
// returned record carries the VersionNotCurrent warning. An entity-capacity
// submission over an existing individual one upgrades the record in place,
// since entity takes precedence for gating.
func (s *AgreementService) RecordSignature(identityID string, version int, capacity models.SignatureCapacity, entityRef *string) (*models.Signature, bool, error) {
	target, err := s.versionRepo.GetByVersion(version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, fmt.Errorf("unknown agreement version %d", version)
		}
		return nil, false, err
	}

	sig := models.NewSignature(identityID, target.ID, capacity, entityRef)
	recorded, created, err := s.signatureRepo.CreateIfAbsent(sig)
	if err != nil {
		return nil, false, err
	}

	if !created && capacity == models.CapacityEntity && recorded.Capacity == models.CapacityIndividual {
		if err := s.signatureRepo.UpdateCapacity(recorded.ID, capacity, entityRef); err != nil {
			return nil, false, err
		}
		recorded.Capacity = capacity
		recorded.EntityRef = entityRef
	}

	recorded.VersionNotCurrent = !target.IsCurrent
	return recorded, created, nil
}

// StatusOf projects one identity's standing against the given version.
// With grandfathering enabled, a signature for any version at or below the
// given one satisfies; otherwise only the exact version does.
func (s *AgreementService) StatusOf(identityID string, version *models.AgreementVersion) (*models.SignatureStatus, error) {
	sig, err := s.signatureRepo.GetByIdentityAndVersion(identityID, version.ID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	if err == sql.ErrNoRows && s.grandfather {
		sig, err = s.latestPriorSignature(identityID, version.Version)
		if err != nil {
			return nil, err
		}
	}

	if sig == nil {
		return &models.SignatureStatus{State: models.StateUnsigned}, nil
	}

	if sig.Capacity == models.CapacityEntity {
		status := &models.SignatureStatus{State: models.StateSignedEntity}
		if sig.EntityRef != nil {
			status.EntityRef = *sig.EntityRef
		}
		return status, nil
	}

	return &models.SignatureStatus{State: models.StateSignedIndividual}, nil
}

// latestPriorSignature finds the newest signature for a version at or below
// the given number, nil if none exists.
func (s *AgreementService) latestPriorSignature(identityID string, maxVersion int) (*models.Signature, error) {
	signatures, err := s.signatureRepo.GetByIdentity(identityID)
	if err != nil {
		return nil, err
	}

	for _, sig := range signatures {
		version, err := s.versionRepo.GetByID(sig.VersionID)
		if err != nil {
			return nil, err
		}
		if version.Version <= maxVersion {
			return sig, nil
		}
	}

	return nil, nil
}
