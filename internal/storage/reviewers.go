package storage

import (
	"context"
	"slices"
	"time"

	"trustline/backend/internal/config"
	"trustline/backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListReviewerOrgIDs returns every organization the user holds a grant for.
func (s *Service) ListReviewerOrgIDs(ctx context.Context, userID string) ([]string, error) {
	var orgIDs []string
	err := s.DB.WithContext(ctx).Model(&models.Reviewer{}).
		Where("user_id = ?", userID).
		Order("org_id ASC").
		Pluck("org_id", &orgIDs).Error
	return orgIDs, logError("list reviewer orgs", err)
}

func (s *Service) IsMember(ctx context.Context, userID, orgID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Reviewer{}).
		Where("user_id = ? AND org_id = ?", userID, orgID).
		Count(&count).Error
	return count > 0, logError("is member", err)
}

// UpsertReviewer grants (userID, orgID), refreshing verified_at and channel_ref when
// the grant already exists, and records REVIEWER_VERIFIED.
func (s *Service) UpsertReviewer(ctx context.Context, userID, orgID, channelRef string) error {
	return logError("upsert reviewer", s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.upsertReviewer(tx, userID, orgID, channelRef)
	}))
}

func (s *Service) upsertReviewer(tx *gorm.DB, userID, orgID, channelRef string) error {
	r := models.Reviewer{UserID: userID, OrgID: orgID, VerifiedAt: s.now()}
	if channelRef != "" {
		r.ChannelRef = &channelRef
	}
	updates := []string{"verified_at"}
	if r.ChannelRef != nil {
		updates = append(updates, "channel_ref")
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "org_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&r).Error
	if err != nil {
		return err
	}
	return tx.Create(s.audit("", userID, models.AuditReviewerVerified, datatypes.JSONMap{"org_id": orgID})).Error
}

// GrantByWhitelist grants every organization whose whitelist names userID, in one
// transaction, and returns the granted organization ids.
func (s *Service) GrantByWhitelist(ctx context.Context, userID, channelRef string) ([]string, error) {
	var orgs []models.Organization
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&orgs).Error; err != nil {
		return nil, logError("grant by whitelist", err)
	}

	var granted []string
	for _, org := range orgs {
		if slices.Contains([]string(org.ReviewerWhitelist), userID) {
			granted = append(granted, org.ID)
		}
	}
	if len(granted) == 0 {
		return nil, nil
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, orgID := range granted {
			if err := s.upsertReviewer(tx, userID, orgID, channelRef); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, logError("grant by whitelist", err)
	}
	return granted, nil
}

// GrantByAccessCode checks code against every unexpired stored hash. On a match the user
// is granted exactly the matched organization. ok is false when nothing matched.
func (s *Service) GrantByAccessCode(ctx context.Context, userID, code, channelRef string) (orgID string, ok bool, err error) {
	var codes []models.AccessCode
	err = s.DB.WithContext(ctx).
		Where("expires_at IS NULL OR expires_at > ?", s.now()).
		Order("id ASC").
		Find(&codes).Error
	if err != nil {
		return "", false, logError("grant by access code", err)
	}

	for _, ac := range codes {
		if !s.hasher.Verify(ac.CodeHash, code) {
			continue
		}
		if err := s.UpsertReviewer(ctx, userID, ac.OrgID, channelRef); err != nil {
			return "", false, err
		}
		return ac.OrgID, true, nil
	}
	return "", false, nil
}

// TouchChannel refreshes the outbound address of an existing grant.
func (s *Service) TouchChannel(ctx context.Context, userID, orgID, channelRef string) error {
	err := s.DB.WithContext(ctx).Model(&models.Reviewer{}).
		Where("user_id = ? AND org_id = ?", userID, orgID).
		Update("channel_ref", channelRef).Error
	return logError("touch reviewer channel", err)
}

func (s *Service) ListReviewersForOrg(ctx context.Context, orgID string) ([]models.Reviewer, error) {
	var reviewers []models.Reviewer
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("user_id ASC").Find(&reviewers).Error
	return reviewers, logError("list reviewers", err)
}

// SyncAccessCodes hashes configured codes that are not stored yet. A code already stored
// for its organization only gets its expiry refreshed. Returns the number inserted.
func (s *Service) SyncAccessCodes(ctx context.Context, specs []config.AccessCodeSpec) (int, error) {
	inserted := 0
	for _, spec := range specs {
		var existing []models.AccessCode
		if err := s.DB.WithContext(ctx).Where("org_id = ?", spec.OrgID).Find(&existing).Error; err != nil {
			return inserted, logError("sync access codes", err)
		}

		matched := false
		for _, ac := range existing {
			if !s.hasher.Verify(ac.CodeHash, spec.Code) {
				continue
			}
			matched = true
			if !sameExpiry(ac.ExpiresAt, spec.ExpiresAt) {
				err := s.DB.WithContext(ctx).Model(&models.AccessCode{}).
					Where("id = ?", ac.ID).
					Update("expires_at", spec.ExpiresAt).Error
				if err != nil {
					return inserted, logError("sync access codes", err)
				}
			}
			break
		}
		if matched {
			continue
		}

		hash, err := s.hasher.Hash(spec.Code)
		if err != nil {
			return inserted, err
		}
		row := models.AccessCode{OrgID: spec.OrgID, CodeHash: hash, CreatedAt: s.now(), ExpiresAt: spec.ExpiresAt}
		if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
			return inserted, logError("sync access codes", err)
		}
		inserted++
	}
	return inserted, nil
}

// PurgeExpiredCodes deletes codes whose expiry has passed.
func (s *Service) PurgeExpiredCodes(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Delete(&models.AccessCode{})
	return res.RowsAffected, logError("purge expired codes", res.Error)
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
