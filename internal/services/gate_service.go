package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/repositories"
)

// GateService computes the merge gate decision for a pull request.
// Evaluation is a pure projection of current store state: it never mutates
// anything, and re-running it with unchanged inputs yields the same result.
type GateService struct {
	agreementService *AgreementService
	identityService  *IdentityService
	entityRepo       *repositories.EntityAgreementRepository
}

func NewGateService(
	agreementService *AgreementService,
	identityService *IdentityService,
	entityRepo *repositories.EntityAgreementRepository,
) *GateService {
	return &GateService{
		agreementService: agreementService,
		identityService:  identityService,
		entityRepo:       entityRepo,
	}
}

// Evaluate computes the gate result for the snapshot against the given
// agreement version. The version is an explicit parameter, never ambient
// state, so the same snapshot can be evaluated against any published
// version deterministically. Any store error propagates to the caller,
// which must treat it as blocked, never allowed.
func (s *GateService) Evaluate(snapshot *models.PRSnapshot, version *models.AgreementVersion) (*models.GateResult, error) {
	result := &models.GateResult{
		State:   models.GateStateAllowed,
		Version: version.Version,
	}

	for _, identityID := range snapshot.Identities() {
		// Resolve the stored key through operator merges so a signature on
		// the surviving identity covers PRs recorded under the old one.
		// Keys with no identity record (unresolved authors) stay as-is and
		// evaluate as unsigned.
		statusID := identityID
		identity, err := s.identityService.Canonical(identityID)
		if err == nil {
			statusID = identity.ID
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		status, err := s.agreementService.StatusOf(statusID, version)
		if err != nil {
			return nil, err
		}

		switch status.State {
		case models.StateSignedIndividual:
			continue
		case models.StateSignedEntity:
			valid, err := s.entityCovered(status.EntityRef)
			if err != nil {
				return nil, err
			}
			if !valid {
				result.StaleIdentities = append(result.StaleIdentities, s.label(identityID))
			}
		default:
			result.MissingIdentities = append(result.MissingIdentities, s.label(identityID))
		}
	}

	if len(result.MissingIdentities) > 0 {
		result.State = models.GateStateBlockedMissing
	} else if len(result.StaleIdentities) > 0 {
		result.State = models.GateStateBlockedStale
	}

	return result, nil
}

// entityCovered checks whether a valid, unexpired, unrevoked entity
// agreement exists for the reference
func (s *GateService) entityCovered(entityRef string) (bool, error) {
	if entityRef == "" {
		return false, nil
	}

	agreement, err := s.entityRepo.GetByEntityRef(entityRef)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}

	return agreement.IsValid(time.Now()), nil
}

// label renders an identity for contributor-facing messages, preferring the
// platform username over the internal key
func (s *GateService) label(identityID string) string {
	identity, err := s.identityService.GetByID(identityID)
	if err != nil {
		return identityID
	}
	return identity.Username
}
