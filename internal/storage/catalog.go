package storage

import (
	"context"
	"log"
	"sort"

	"trustline/backend/internal/config"
	"trustline/backend/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const allOrgsKey = "all"

// SyncCatalog upserts organizations, their categories, the global default categories and
// the configured access codes. Running it twice changes nothing.
func (s *Service) SyncCatalog(ctx context.Context, cat config.Catalog) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, spec := range cat.Orgs {
			org := models.Organization{
				ID:                spec.ID,
				Name:              spec.Name,
				IsActive:          spec.Active(),
				ReviewerWhitelist: pq.StringArray(cat.WhitelistFor(spec.ID)),
				CreatedAt:         s.now(),
			}
			if org.ReviewerWhitelist == nil {
				org.ReviewerWhitelist = pq.StringArray{}
			}
			if spec.ShortCode != "" {
				sc := spec.ShortCode
				org.ShortCode = &sc
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "short_code", "is_active", "reviewer_whitelist"}),
			}).Create(&org).Error
			if err != nil {
				return err
			}
			if err := upsertCategories(tx, spec.ID, spec.Categories); err != nil {
				return err
			}
		}
		return upsertCategories(tx, "", config.DefaultCategories)
	})
	if err != nil {
		return logError("sync catalog", err)
	}

	added, err := s.SyncAccessCodes(ctx, cat.AccessCodes)
	if err != nil {
		return err
	}
	s.InvalidateCatalog()
	log.Printf("INFO: Reference data synced: %d orgs, %d access codes (%d new)", len(cat.Orgs), len(cat.AccessCodes), added)
	return nil
}

func upsertCategories(tx *gorm.DB, orgID string, specs []config.CategorySpec) error {
	for _, c := range specs {
		row := models.Category{ID: c.ID, OrgID: orgID, Name: c.Name}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}, {Name: "org_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// InvalidateCatalog drops cached organizations and categories.
func (s *Service) InvalidateCatalog() {
	s.orgCache.Purge()
	s.catCache.Purge()
}

func (s *Service) allOrganizations(ctx context.Context) ([]models.Organization, error) {
	if orgs, ok := s.orgCache.Get(allOrgsKey); ok {
		return orgs, nil
	}
	var orgs []models.Organization
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, logError("list organizations", err)
	}
	s.orgCache.Add(allOrgsKey, orgs)
	return orgs, nil
}

// ActiveOrganizations returns the organizations reporters can choose, by name.
func (s *Service) ActiveOrganizations(ctx context.Context) ([]models.Organization, error) {
	orgs, err := s.allOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]models.Organization, 0, len(orgs))
	for _, o := range orgs {
		if o.IsActive {
			active = append(active, o)
		}
	}
	return active, nil
}

// Organization returns one organization, active or not.
func (s *Service) Organization(ctx context.Context, id string) (*models.Organization, error) {
	orgs, err := s.allOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orgs {
		if orgs[i].ID == id {
			org := orgs[i]
			return &org, nil
		}
	}
	return nil, ErrNotFound
}

// Categories returns the organization's own categories followed by the global ones.
func (s *Service) Categories(ctx context.Context, orgID string) ([]models.Category, error) {
	if cats, ok := s.catCache.Get(orgID); ok {
		return cats, nil
	}
	var cats []models.Category
	err := s.DB.WithContext(ctx).
		Where("org_id = ? OR org_id = ?", orgID, "").
		Order("id ASC").
		Find(&cats).Error
	if err != nil {
		return nil, logError("list categories", err)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].OrgID != "" && cats[j].OrgID == ""
	})
	s.catCache.Add(orgID, cats)
	return cats, nil
}
