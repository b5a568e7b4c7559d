package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"trustline/backend/internal/config"
	"trustline/backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrShortIDExhausted = errors.New("storage: could not allocate a unique short id")

// CreateCase inserts c with status new, its first transcript entry and a CASE_CREATED
// audit entry in one transaction. A short-id collision rolls the attempt back and
// retries with a fresh token.
func (s *Service) CreateCase(ctx context.Context, c *models.Case) error {
	if c.OrgID == "" || c.CategoryID == "" || c.Text == "" {
		return fmt.Errorf("storage: case requires org, category and text")
	}
	c.Status = models.StatusNew

	for attempt := 1; attempt <= config.ShortIDAttempts; attempt++ {
		shortID, err := s.newShortID()
		if err != nil {
			return fmt.Errorf("generate short id: %w", err)
		}
		c.ID = ""
		c.ShortID = shortID

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(c).Error; err != nil {
				return err
			}
			first := models.CaseMessage{
				CaseID:      c.ID,
				SenderType:  models.SenderReporter,
				Text:        c.Text,
				Attachments: c.Attachments,
			}
			if err := tx.Create(&first).Error; err != nil {
				return err
			}
			return tx.Create(s.audit(c.ID, c.ReporterUserID, models.AuditCaseCreated, nil)).Error
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("WARN: short id collision on attempt %d, retrying", attempt)
			continue
		}
		return logError("create case", err)
	}
	return logError("create case", ErrShortIDExhausted)
}

func (s *Service) FindCaseByShortID(ctx context.Context, shortID string) (*models.Case, error) {
	var c models.Case
	err := s.DB.WithContext(ctx).Where("short_id = ?", shortID).First(&c).Error
	if err != nil {
		return nil, logError("find case by short id", notFound(err))
	}
	return &c, nil
}

func (s *Service) FindCaseByID(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, logError("find case by id", notFound(err))
	}
	return &c, nil
}

// ListCasesByStatuses returns the most recently updated cases of an organization.
func (s *Service) ListCasesByStatuses(ctx context.Context, orgID string, statuses []models.CaseStatus, limit int) ([]models.Case, error) {
	var cases []models.Case
	err := s.DB.WithContext(ctx).
		Where("org_id = ? AND status IN ?", orgID, statuses).
		Order("updated_at DESC").
		Limit(limit).
		Find(&cases).Error
	return cases, logError("list cases", err)
}

// UpdateCaseStatus writes the new status and one CASE_STATUS audit entry.
// The transition itself is not validated here.
func (s *Service) UpdateCaseStatus(ctx context.Context, caseID string, status models.CaseStatus, actorUserID string) error {
	if !status.Valid() {
		return fmt.Errorf("storage: unknown status %q", status)
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.touchCase(tx, caseID, map[string]interface{}{"status": status}); err != nil {
			return err
		}
		return tx.Create(s.audit(caseID, actorUserID, models.AuditCaseStatus, datatypes.JSONMap{"status": string(status)})).Error
	})
	return logError("update case status", err)
}

// AssignCase sets the assignee and writes one CASE_ASSIGN audit entry.
func (s *Service) AssignCase(ctx context.Context, caseID, assigneeUserID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.touchCase(tx, caseID, map[string]interface{}{"assignee_user_id": assigneeUserID}); err != nil {
			return err
		}
		return tx.Create(s.audit(caseID, assigneeUserID, models.AuditCaseAssign, datatypes.JSONMap{"assignee": assigneeUserID})).Error
	})
	return logError("assign case", err)
}

func (s *Service) AppendCaseMessage(ctx context.Context, msg *models.CaseMessage) error {
	return logError("append case message", s.DB.WithContext(ctx).Create(msg).Error)
}

func (s *Service) SetPendingQuestion(ctx context.Context, caseID, question string) error {
	return logError("set pending question", s.touchCase(s.DB.WithContext(ctx), caseID, map[string]interface{}{"pending_question": question}))
}

func (s *Service) ClearPendingQuestion(ctx context.Context, caseID string) error {
	return logError("clear pending question", s.touchCase(s.DB.WithContext(ctx), caseID, map[string]interface{}{"pending_question": nil}))
}

// CaseMessages returns the transcript in insertion order.
func (s *Service) CaseMessages(ctx context.Context, caseID string) ([]models.CaseMessage, error) {
	var msgs []models.CaseMessage
	err := s.DB.WithContext(ctx).Where("case_id = ?", caseID).Order("id ASC").Find(&msgs).Error
	return msgs, logError("case messages", err)
}

// AuditTrail returns the audit entries of a case. Only operator tooling reads it.
func (s *Service) AuditTrail(ctx context.Context, caseID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := s.DB.WithContext(ctx).Where("case_id = ?", caseID).Order("id ASC").Find(&entries).Error
	return entries, logError("audit trail", err)
}

func (s *Service) touchCase(tx *gorm.DB, caseID string, fields map[string]interface{}) error {
	fields["updated_at"] = s.now()
	res := tx.Model(&models.Case{}).Where("id = ?", caseID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) audit(caseID, actorUserID, action string, meta datatypes.JSONMap) *models.AuditEntry {
	if meta == nil {
		meta = datatypes.JSONMap{}
	}
	entry := &models.AuditEntry{Action: action, Meta: meta, CreatedAt: s.now()}
	if caseID != "" {
		entry.CaseID = &caseID
	}
	if actorUserID != "" {
		entry.ActorUserID = &actorUserID
	}
	return entry
}
