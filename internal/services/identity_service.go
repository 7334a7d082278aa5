package services

import (
	"fmt"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/repositories"
)

type IdentityService struct {
	identityRepo *repositories.IdentityRepository
}

func NewIdentityService(identityRepo *repositories.IdentityRepository) *IdentityService {
	return &IdentityService{
		identityRepo: identityRepo,
	}
}

// Resolve maps a platform account to its canonical identity. Resolution is
// total: an unknown account mints a fresh identity, since a contributor may
// sign before or after opening their first pull request. Superseded
// identities resolve to the record they were merged into.
func (s *IdentityService) Resolve(platformAccountID, username string) (*models.Identity, error) {
	identity, err := s.identityRepo.GetOrCreateByAccountID(platformAccountID, username)
	if err != nil {
		return nil, err
	}

	return s.follow(identity)
}

// Canonical follows merge chains from a stored identity key to the surviving
// record. Snapshots keep the identity IDs they were recorded with, so gate
// evaluation resolves each one here to pick up operator merges.
func (s *IdentityService) Canonical(id string) (*models.Identity, error) {
	identity, err := s.identityRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.follow(identity)
}

func (s *IdentityService) follow(identity *models.Identity) (*models.Identity, error) {
	for identity.IsSuperseded() {
		canonical, err := s.identityRepo.GetByID(*identity.SupersededBy)
		if err != nil {
			return nil, fmt.Errorf("failed to follow superseded identity %s: %w", identity.ID, err)
		}
		identity = canonical
	}

	return identity, nil
}

// GetByID retrieves an identity by its canonical key
func (s *IdentityService) GetByID(id string) (*models.Identity, error) {
	return s.identityRepo.GetByID(id)
}

// ClaimEntity attaches an organizational affiliation claim to an identity.
// The claim is advisory until corroborated by an entity agreement record;
// an unverified claim never grants entity-capacity gate status.
func (s *IdentityService) ClaimEntity(identityID, entityRef string) error {
	identity, err := s.identityRepo.GetByID(identityID)
	if err != nil {
		return err
	}

	identity.EntityClaim = &entityRef
	return s.identityRepo.Update(identity)
}

// Merge marks one identity as superseded by another. Operator action only;
// identities are never deleted.
func (s *IdentityService) Merge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("cannot merge identity %s into itself", fromID)
	}

	target, err := s.identityRepo.GetByID(toID)
	if err != nil {
		return fmt.Errorf("merge target not found: %w", err)
	}
	if target.IsSuperseded() {
		return fmt.Errorf("merge target %s is itself superseded", toID)
	}

	from, err := s.identityRepo.GetByID(fromID)
	if err != nil {
		return err
	}

	from.SupersededBy = &toID
	return s.identityRepo.Update(from)
}
