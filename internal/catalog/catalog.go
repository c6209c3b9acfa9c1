package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

const (
	cacheTTL     = 5 * time.Minute
	priceLockTTL = 10 * time.Second
)

// Lookup resolves catalog items with a Redis read-through cache in
// front of the database. Cache failures fall back to the database and
// are never surfaced to the caller.
type Lookup struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewLookup creates a new catalog lookup
func NewLookup(store *store.Store, redis *redisclient.Client) *Lookup {
	return &Lookup{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// Resolve finds an item by id, then SKU, then barcode; the first match
// wins. No match resolves to ErrItemNotFound.
func (l *Lookup) Resolve(ctx context.Context, ref models.ItemRef) (*models.Item, error) {
	ctx, span := util.StartSpan(ctx, "Catalog.Resolve")
	defer span.End()

	type lookup struct {
		kind string
		ref  string
		load func() (*models.Item, error)
	}

	var lookups []lookup
	if ref.ItemID != 0 {
		lookups = append(lookups, lookup{"id", strconv.FormatInt(ref.ItemID, 10), func() (*models.Item, error) {
			return l.store.GetItemByID(ctx, ref.ItemID)
		}})
	}
	if ref.SKU != "" {
		lookups = append(lookups, lookup{"sku", ref.SKU, func() (*models.Item, error) {
			return l.store.GetItemBySKU(ctx, ref.SKU)
		}})
	}
	if ref.Barcode != "" {
		lookups = append(lookups, lookup{"barcode", ref.Barcode, func() (*models.Item, error) {
			return l.store.GetItemByBarcode(ctx, ref.Barcode)
		}})
	}

	for _, lu := range lookups {
		item, err := l.cached(ctx, lu.kind, lu.ref, lu.load)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, models.ErrItemNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: no reference resolved", models.ErrItemNotFound)
}

// UpdatePrice changes an item's selling price and drops its cache
// entries. Lines already snapshotted on open orders keep their price.
// A short Redis lock serializes concurrent uploads touching the same
// item so the cache invalidation cannot race a stale re-fill.
func (l *Lookup) UpdatePrice(ctx context.Context, itemID int64, price string) error {
	lockKey := fmt.Sprintf("item-price:%d", itemID)
	acquired, err := l.redis.AcquireLock(ctx, lockKey, priceLockTTL)
	if err != nil {
		l.logger.Warn("Price lock unavailable, proceeding without it",
			zap.Int64("item_id", itemID),
			zap.Error(err))
	} else if !acquired {
		return fmt.Errorf("price update for item %d already in progress", itemID)
	} else {
		defer func() {
			if err := l.redis.ReleaseLock(ctx, lockKey); err != nil {
				l.logger.Warn("Failed to release price lock", zap.Error(err))
			}
		}()
	}

	if err := l.store.UpdateItemPrice(ctx, itemID, price); err != nil {
		return err
	}

	item, err := l.store.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if err := l.redis.InvalidateItem(ctx, item); err != nil {
		l.logger.Warn("Failed to invalidate item cache",
			zap.Int64("item_id", itemID),
			zap.Error(err))
	}
	return nil
}

func (l *Lookup) cached(ctx context.Context, kind, ref string, load func() (*models.Item, error)) (*models.Item, error) {
	item, err := l.redis.GetCachedItem(ctx, kind, ref)
	if err != nil {
		l.logger.Warn("Item cache read failed, falling back to DB",
			zap.String("kind", kind),
			zap.String("ref", ref),
			zap.Error(err))
	}
	if item != nil {
		return item, nil
	}

	item, err = load()
	if err != nil {
		return nil, err
	}

	if err := l.redis.CacheItem(ctx, kind, ref, item, cacheTTL); err != nil {
		l.logger.Warn("Failed to cache item",
			zap.Int64("item_id", item.ID),
			zap.Error(err))
	}
	return item, nil
}
