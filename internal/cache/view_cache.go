package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/minecom/minedash/internal/config"
	"github.com/minecom/minedash/internal/records"
	"github.com/minecom/minedash/internal/strapi"
)

// Cache key prefixes.
const (
	BankRecordViewCachePrefix = "bank-record-view-"
	RolesCachePrefix          = "roles-"
)

const rolesKey = "all"

// ViewCache holds per-session view state and rarely changing lookups.
type ViewCache struct {
	BankRecordViews *PrefixedCache[records.Snapshot]
	Roles           *PrefixedCache[[]strapi.Role]

	locks viewLocks
}

// NewViewCache creates the caches described by cfg.
func NewViewCache(cfg *config.CacheConfig) *ViewCache {
	instance := newCacheInstanceByType(cfg)
	return &ViewCache{
		BankRecordViews: NewPrefixedCache[records.Snapshot](instance, BankRecordViewCachePrefix, cfg.ViewTTL),
		Roles:           NewPrefixedCache[[]strapi.Role](instance, RolesCachePrefix, time.Hour),
	}
}

// LockBankRecordView holds the view of viewID until the returned func is
// called. Callers wrap a Get/Set round trip in it so concurrent requests of
// one session do not overwrite each other. The lock is local to this process.
func (v *ViewCache) LockBankRecordView(viewID string) (unlock func()) {
	return v.locks.lock(viewID)
}

// GetBankRecordView returns the cached view of viewID, if any.
func (v *ViewCache) GetBankRecordView(ctx context.Context, viewID string) (records.Snapshot, bool) {
	snap, err := v.BankRecordViews.Get(ctx, viewID)
	if err != nil {
		log.Debug("Cache miss for bank record view", "view_id", viewID)
		return records.Snapshot{}, false
	}
	return snap, true
}

// SetBankRecordView stores the view of viewID.
func (v *ViewCache) SetBankRecordView(ctx context.Context, viewID string, snap records.Snapshot) {
	if err := v.BankRecordViews.Set(ctx, viewID, snap); err != nil {
		log.Error("Failed to cache bank record view", "view_id", viewID, "error", err)
	}
}

// DeleteBankRecordView drops the view of viewID.
func (v *ViewCache) DeleteBankRecordView(ctx context.Context, viewID string) {
	if err := v.BankRecordViews.Delete(ctx, viewID); err != nil {
		log.Debug("Failed to delete bank record view", "view_id", viewID, "error", err)
	}
}

// GetRoles returns the cached role list, if any.
func (v *ViewCache) GetRoles(ctx context.Context) ([]strapi.Role, bool) {
	roles, err := v.Roles.Get(ctx, rolesKey)
	if err != nil {
		return nil, false
	}
	return roles, true
}

// SetRoles caches the role list.
func (v *ViewCache) SetRoles(ctx context.Context, roles []strapi.Role) {
	if err := v.Roles.Set(ctx, rolesKey, roles); err != nil {
		log.Error("Failed to cache roles", "error", err)
	}
}

// ClearAll drops every cached entry.
func (v *ViewCache) ClearAll(ctx context.Context) error {
	if err := v.BankRecordViews.Clear(ctx); err != nil {
		return err
	}
	return v.Roles.Clear(ctx)
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

func (v *ViewCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     v.BankRecordViews.GetStats(),
			CacheName: "bank-record-views",
		},
		{
			Stats:     v.Roles.GetStats(),
			CacheName: "roles",
		},
	}
}
