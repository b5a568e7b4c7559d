// Package lifecycle owns the case status graph and the reviewer actions that move
// a case along it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"trustline/backend/internal/models"
)

var ErrIllegalTransition = errors.New("lifecycle: transition not allowed")

// Action is a reviewer-driven status change.
type Action string

const (
	ActionTake             Action = "take"
	ActionCloseConfirmed   Action = "close_confirmed"
	ActionCloseUnconfirmed Action = "close_unconfirmed"
	ActionReject           Action = "reject"
)

// transitions is the full legal graph. Terminal statuses have no entry.
var transitions = map[models.CaseStatus][]models.CaseStatus{
	models.StatusNew:        {models.StatusInProgress, models.StatusRejected},
	models.StatusTriage:     {models.StatusInProgress, models.StatusRejected},
	models.StatusInProgress: {models.StatusResolvedConfirmed, models.StatusResolvedUnconfirmed, models.StatusRejected},
}

var targets = map[Action]models.CaseStatus{
	ActionTake:             models.StatusInProgress,
	ActionCloseConfirmed:   models.StatusResolvedConfirmed,
	ActionCloseUnconfirmed: models.StatusResolvedUnconfirmed,
	ActionReject:           models.StatusRejected,
}

// CanTransition reports whether from → to is an edge of the graph.
func CanTransition(from, to models.CaseStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Target returns the status an action moves a case to.
func Target(a Action) (models.CaseStatus, bool) {
	st, ok := targets[a]
	return st, ok
}

// Repository is the slice of the case store the service writes through.
type Repository interface {
	UpdateCaseStatus(ctx context.Context, caseID string, status models.CaseStatus, actorUserID string) error
	AssignCase(ctx context.Context, caseID, assigneeUserID string) error
}

// Service applies reviewer actions to cases.
type Service struct {
	Repo Repository
}

// NewService creates a new lifecycle service.
func NewService(repo Repository) *Service {
	return &Service{Repo: repo}
}

// Apply validates the action against the case's current status and writes it.
// An illegal action returns ErrIllegalTransition and writes nothing. On success c is
// updated in place.
func (s *Service) Apply(ctx context.Context, c *models.Case, action Action, actorUserID string) error {
	target, ok := Target(action)
	if !ok {
		return fmt.Errorf("lifecycle: unknown action %q", action)
	}
	if !CanTransition(c.Status, target) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.Status, target)
	}

	if action == ActionTake {
		if err := s.Repo.AssignCase(ctx, c.ID, actorUserID); err != nil {
			return err
		}
		assignee := actorUserID
		c.AssigneeUserID = &assignee
	}
	if err := s.Repo.UpdateCaseStatus(ctx, c.ID, target, actorUserID); err != nil {
		return err
	}
	c.Status = target
	return nil
}
