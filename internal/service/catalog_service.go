// FILE: internal/service/catalog_service.go
package service

import (
	"context"
	"sync"

	"membership-iap-core/internal/entity"
	"membership-iap-core/internal/medium"
	"membership-iap-core/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

type ICatalogService interface {
	// LoadCatalog fetches the backend plan list, resolves handles from the
	// purchase medium in one batch, and replaces the catalog wholesale.
	// On backend failure the previous catalog is kept.
	LoadCatalog(ctx context.Context) ([]*entity.CatalogEntry, error)

	// Resolve maps a plan code to its purchase-medium handle. The second
	// return is false when the plan is unknown or its handle never resolved.
	Resolve(planCode string) (*entity.ProductHandle, bool)

	Entries() []*entity.CatalogEntry
	IsEmpty() bool
}

type catalogService struct {
	ledger LedgerGateway
	medium medium.Medium
	log    logger.ILogger

	mu      sync.RWMutex
	entries []*entity.CatalogEntry
	// handles caches medium product handles by product id for the session
	// lifetime; flushed and repopulated wholesale on each load.
	handles *cache.Cache
}

func NewCatalogService(ledgerClient LedgerGateway, med medium.Medium, log logger.ILogger) ICatalogService {
	return &catalogService{
		ledger:  ledgerClient,
		medium:  med,
		log:     log,
		handles: cache.New(cache.NoExpiration, 0),
	}
}

func (s *catalogService) LoadCatalog(ctx context.Context) ([]*entity.CatalogEntry, error) {
	items, err := s.ledger.GetProducts(ctx)
	if err != nil {
		s.log.Warn("catalog", "Plan list fetch failed, keeping previous catalog", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	resolved, err := s.medium.Products(ctx, ids)
	if err != nil {
		s.log.Warn("catalog", "Handle resolution failed, keeping previous catalog", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	byID := make(map[string]entity.ProductHandle, len(resolved))
	for _, h := range resolved {
		byID[h.ID] = h
	}

	entries := make([]*entity.CatalogEntry, 0, len(items))
	for _, item := range items {
		if item.MembershipPlan == nil || item.MembershipPlan.PlanCode == "" {
			s.log.Warn("catalog", "Product without plan code skipped", map[string]interface{}{
				"product_id": item.ProductID,
			})
			continue
		}
		// Unmatched ids resolve to NotFound later rather than failing the
		// load: product configuration can lag between the two systems.
		_, ok := byID[item.ProductID]
		entries = append(entries, &entity.CatalogEntry{
			PlanCode:      item.MembershipPlan.PlanCode,
			ProductID:     item.ProductID,
			PlanName:      item.MembershipPlan.PlanName,
			Description:   item.Description,
			Price:         item.Price,
			Currency:      item.Currency,
			IsRecommended: item.IsRecommended,
			Resolved:      ok,
		})
	}

	s.mu.Lock()
	s.entries = entries
	s.handles.Flush()
	for id, h := range byID {
		handle := h
		s.handles.Set(id, &handle, cache.NoExpiration)
	}
	s.mu.Unlock()

	s.log.Info("catalog", "Catalog replaced", map[string]interface{}{
		"plans":   len(entries),
		"handles": len(byID),
	})
	return entries, nil
}

func (s *catalogService) Resolve(planCode string) (*entity.ProductHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.PlanCode != planCode {
			continue
		}
		if x, found := s.handles.Get(e.ProductID); found {
			return x.(*entity.ProductHandle), true
		}
		return nil, false
	}
	return nil, false
}

func (s *catalogService) Entries() []*entity.CatalogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.CatalogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *catalogService) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries) == 0
}
