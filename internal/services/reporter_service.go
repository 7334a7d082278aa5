package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/clagate/clagate/internal/models"
	"github.com/google/go-github/v57/github"
)

const (
	markerBlocked = "<!-- cla-gate:transition:blocked -->"
	markerAllowed = "<!-- cla-gate:transition:allowed -->"
)

// ReporterService renders gate decisions back to the hosting platform as a
// commit status plus, on state transitions only, an instructional comment.
type ReporterService struct {
	platform  PlatformAPI
	checkName string
	signURL   string
}

func NewReporterService(platform PlatformAPI, checkName, signURL string) *ReporterService {
	return &ReporterService{
		platform:  platform,
		checkName: checkName,
		signURL:   signURL,
	}
}

// Report publishes the gate result for the snapshot's current head. The
// status check is keyed by the stable configured name, so repeated reports
// update in place. A comment is posted at most once per transition
// (into blocked, or blocked into allowed), never per evaluation, to avoid
// spamming force-pushes by already-covered contributors.
func (s *ReporterService) Report(ctx context.Context, snapshot *models.PRSnapshot, result *models.GateResult, previous models.GateState) error {
	status := &github.RepoStatus{
		Context:     github.String(s.checkName),
		TargetURL:   github.String(s.signURL),
		State:       github.String(statusState(result)),
		Description: github.String(statusDescription(result)),
	}

	if err := s.platform.CreateStatus(ctx, snapshot.RepoOwner, snapshot.RepoName, snapshot.HeadSHA, status); err != nil {
		return err
	}

	marker, body := s.transitionComment(result, previous)
	if marker == "" {
		return nil
	}

	exists, err := s.commentExists(ctx, snapshot, marker)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return s.platform.CreateComment(ctx, snapshot.RepoOwner, snapshot.RepoName, snapshot.PRNumber, marker+"\n"+body)
}

// transitionComment decides whether this report crosses a comment-worthy
// transition and renders the message. Empty marker means no comment.
func (s *ReporterService) transitionComment(result *models.GateResult, previous models.GateState) (string, string) {
	switch {
	case result.Blocked() && previous != models.GateStateBlockedMissing && previous != models.GateStateBlockedStale:
		return markerBlocked, s.blockedMessage(result)
	case result.Allowed() && (previous == models.GateStateBlockedMissing || previous == models.GateStateBlockedStale):
		return markerAllowed, "All contributors are now covered by a signed CLA. Thank you! This pull request is clear to merge."
	default:
		return "", ""
	}
}

func (s *ReporterService) blockedMessage(result *models.GateResult) string {
	var b strings.Builder
	b.WriteString("Thank you for your contribution! Before this pull request can be merged, ")
	b.WriteString("every commit author must be covered by a signed Contributor License Agreement.\n\n")

	if len(result.MissingIdentities) > 0 {
		b.WriteString(fmt.Sprintf("The following contributors have not signed the current agreement (v%d): **%s**. ",
			result.Version, strings.Join(result.MissingIdentities, "**, **")))
		b.WriteString(fmt.Sprintf("Please sign at %s.\n\n", s.signURL))
	}

	if len(result.StaleIdentities) > 0 {
		b.WriteString(fmt.Sprintf("The following contributors signed on behalf of an organization whose agreement is unverified or expired: **%s**. ",
			strings.Join(result.StaleIdentities, "**, **")))
		b.WriteString("Ask your organization's CLA manager to renew its agreement, or sign individually.\n")
	}

	return b.String()
}

// commentExists checks whether a comment carrying the marker is already on
// the PR, so redeliveries and repeated evaluations stay idempotent
func (s *ReporterService) commentExists(ctx context.Context, snapshot *models.PRSnapshot, marker string) (bool, error) {
	comments, err := s.platform.ListComments(ctx, snapshot.RepoOwner, snapshot.RepoName, snapshot.PRNumber)
	if err != nil {
		return false, err
	}

	for _, comment := range comments {
		if comment.Body != nil && strings.Contains(*comment.Body, marker) {
			return true, nil
		}
	}

	return false, nil
}

func statusState(result *models.GateResult) string {
	if result.Allowed() {
		return "success"
	}
	return "failure"
}

func statusDescription(result *models.GateResult) string {
	switch result.State {
	case models.GateStateAllowed:
		return fmt.Sprintf("All contributors have signed the CLA (v%d)", result.Version)
	case models.GateStateBlockedMissing:
		return fmt.Sprintf("%d contributor(s) have not signed the CLA", len(result.MissingIdentities))
	case models.GateStateBlockedStale:
		return fmt.Sprintf("%d contributor(s) have an unverified entity agreement", len(result.StaleIdentities))
	default:
		return "CLA verification pending"
	}
}
