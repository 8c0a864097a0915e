package services

import (
	"fmt"
	"log"

	"decokatsu-challenge-system/models"

	"gorm.io/gorm"
)

// CatalogService holds the action catalog loaded once at startup.
// The table is treated as immutable for the life of the process;
// changing point values requires a restart.
//
// Reads and writes are deliberately asymmetric: Validate rejects
// unknown keys at the submission boundary, while PointsFor silently
// scores unknown keys as zero so that dropping an action from the
// catalog never breaks recomputation of historical rows.
type CatalogService struct {
	defs  map[string]models.ActionDefinition
	order []string
}

// NewCatalogService seeds missing default actions, then loads the full
// catalog into memory.
func NewCatalogService(db *gorm.DB) (*CatalogService, error) {
	for _, def := range models.DefaultCatalog {
		var count int64
		if err := db.Model(&models.ActionDefinition{}).Where("key = ?", def.Key).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("%w: seeding action catalog: %v", ErrStoreUnavailable, err)
		}
		if count == 0 {
			if err := db.Create(&def).Error; err != nil {
				return nil, fmt.Errorf("%w: seeding action %s: %v", ErrStoreUnavailable, def.Key, err)
			}
		}
	}

	var defs []models.ActionDefinition
	if err := db.Order("created_at ASC, key ASC").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("%w: loading action catalog: %v", ErrStoreUnavailable, err)
	}

	s := &CatalogService{defs: make(map[string]models.ActionDefinition, len(defs))}
	for _, def := range defs {
		if _, dup := s.defs[def.Key]; dup {
			return nil, fmt.Errorf("duplicate action key in catalog: %s", def.Key)
		}
		s.defs[def.Key] = def
		s.order = append(s.order, def.Key)
	}

	log.Printf("📒 Action catalog loaded: %d actions", len(s.order))
	return s, nil
}

// Lookup returns the definition for key.
func (s *CatalogService) Lookup(key string) (models.ActionDefinition, error) {
	def, ok := s.defs[key]
	if !ok {
		return models.ActionDefinition{}, fmt.Errorf("%w: %s", ErrUnknownAction, key)
	}
	return def, nil
}

// Validate rejects any key not present in the catalog. Used on the
// write path only.
func (s *CatalogService) Validate(keys []string) error {
	for _, k := range keys {
		if _, ok := s.defs[k]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAction, k)
		}
	}
	return nil
}

// PointsFor sums the point values of the known keys in the set.
// Unknown keys contribute zero — historical rows may reference actions
// the catalog no longer carries.
func (s *CatalogService) PointsFor(keys []string) int {
	total := 0
	for _, k := range keys {
		if def, ok := s.defs[k]; ok {
			total += def.Points
		}
	}
	return total
}

// Definitions returns the catalog in load order (for the checklist UI).
func (s *CatalogService) Definitions() []models.ActionDefinition {
	out := make([]models.ActionDefinition, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.defs[k])
	}
	return out
}
