package services

import (
	"context"
	"database/sql"

	"github.com/clagate/clagate/internal/models"
	"github.com/clagate/clagate/internal/repositories"
	"github.com/clagate/clagate/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// IngestOutcome reports how a webhook delivery was handled
type IngestOutcome string

const (
	IngestApplied   IngestOutcome = "applied"
	IngestDuplicate IngestOutcome = "duplicate"
	IngestStale     IngestOutcome = "stale"
)

// IngestService receives pull-request lifecycle events, deduplicates them,
// and keeps PR snapshots current. It exclusively owns the snapshot table.
type IngestService struct {
	deliveryRepo    *repositories.DeliveryRepository
	snapshotRepo    *repositories.PRSnapshotRepository
	jobRepo         *repositories.JobRepository
	identityService *IdentityService
	exemptAccounts  map[string]bool
}

func NewIngestService(
	deliveryRepo *repositories.DeliveryRepository,
	snapshotRepo *repositories.PRSnapshotRepository,
	jobRepo *repositories.JobRepository,
	identityService *IdentityService,
	exemptAccounts []string,
) *IngestService {
	exempt := make(map[string]bool, len(exemptAccounts))
	for _, account := range exemptAccounts {
		exempt[account] = true
	}

	return &IngestService{
		deliveryRepo:    deliveryRepo,
		snapshotRepo:    snapshotRepo,
		jobRepo:         jobRepo,
		identityService: identityService,
		exemptAccounts:  exempt,
	}
}

// Ingest applies one webhook delivery. The delivery identifier is the
// idempotency key: a redelivered notification is a no-op. Out-of-order
// events are discarded by head-commit comparison, never by timestamp,
// since clock skew across delivery retries is expected.
func (s *IngestService) Ingest(deliveryID string, event *models.PullRequestEvent) (IngestOutcome, error) {
	applied, err := s.deliveryRepo.Record(models.NewDelivery(deliveryID, event.Action))
	if err != nil {
		return "", err
	}
	if !applied {
		logger.WithField("delivery_id", deliveryID).Info("Duplicate delivery ignored")
		return IngestDuplicate, nil
	}

	snapshot, err := s.snapshotRepo.GetByRepoPR(event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil && err != sql.ErrNoRows {
		return "", err
	}

	if event.IsClose() {
		if snapshot != nil {
			if err := s.snapshotRepo.Archive(snapshot.ID); err != nil {
				return "", err
			}
		}
		return IngestApplied, nil
	}

	if snapshot == nil {
		snapshot = models.NewPRSnapshot(event.RepoOwner, event.RepoName, event.PRNumber, event.HeadSHA)
		if err := s.applyEvent(snapshot, deliveryID, event); err != nil {
			return "", err
		}
		if err := s.snapshotRepo.Create(snapshot); err != nil {
			return "", err
		}
		return IngestApplied, s.enqueueEvaluation(snapshot.ID)
	}

	// Only synchronize introduces a new head. Any other event whose head
	// does not match the recorded one was superseded in transit.
	if event.Action != "synchronize" && event.HeadSHA != snapshot.HeadSHA {
		logger.WithFields(map[string]interface{}{
			"delivery_id": deliveryID,
			"action":      event.Action,
			"event_head":  event.HeadSHA,
			"known_head":  snapshot.HeadSHA,
		}).Info("Stale event discarded")
		return IngestStale, nil
	}

	snapshot.Archived = false // reopened PRs come back into scope
	if err := s.applyEvent(snapshot, deliveryID, event); err != nil {
		return "", err
	}
	if err := s.snapshotRepo.Update(snapshot); err != nil {
		return "", err
	}

	return IngestApplied, s.enqueueEvaluation(snapshot.ID)
}

// applyEvent records the event's head and replaces the snapshot's identity
// set wholesale. Replacement, not union: a force-push may drop commits and
// their authors.
func (s *IngestService) applyEvent(snapshot *models.PRSnapshot, deliveryID string, event *models.PullRequestEvent) error {
	var identityIDs []string
	seen := make(map[string]bool)

	for _, author := range event.CommitAuthors {
		if s.exemptAccounts[author.AccountID] || s.exemptAccounts[author.Username] {
			continue
		}

		key := author.AccountID
		identity, err := s.identityService.Resolve(author.AccountID, author.Username)
		if err != nil {
			// An unresolved identity never blocks ingestion. The raw
			// account id stays in the set, so the gate sees it as
			// unsigned rather than absent.
			logger.WithError(err).WithField("account_id", author.AccountID).Warn("Failed to resolve commit author")
		} else {
			key = identity.ID
		}

		if !seen[key] {
			seen[key] = true
			identityIDs = append(identityIDs, key)
		}
	}

	snapshot.HeadSHA = event.HeadSHA
	snapshot.LastDeliveryID = &deliveryID
	return snapshot.SetIdentities(identityIDs)
}

// enqueueEvaluation schedules a gate evaluation for the snapshot unless one
// is already pending
func (s *IngestService) enqueueEvaluation(snapshotID string) error {
	pending, err := s.jobRepo.HasPendingForSnapshot(snapshotID, models.JobTypeEvaluate)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}

	return s.jobRepo.Create(models.NewJob(snapshotID, models.JobTypeEvaluate))
}

// ReevaluateIdentity fans out gate re-evaluation to every open pull request
// referencing the identity, typically after a new signature lands. Fan-out
// runs in parallel across PRs with no ordering requirement between them.
func (s *IngestService) ReevaluateIdentity(ctx context.Context, identityID string) error {
	snapshots, err := s.snapshotRepo.GetOpenByIdentityID(identityID)
	if err != nil {
		return err
	}

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(8)

	for _, snapshot := range snapshots {
		snapshot := snapshot
		group.Go(func() error {
			return s.enqueueEvaluation(snapshot.ID)
		})
	}

	return group.Wait()
}
