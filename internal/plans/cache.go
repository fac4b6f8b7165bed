package plans

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const defaultCacheTTLSeconds = 5 * 60

type templatesRepo interface {
	Get(ctx context.Context, id int, owner string) (*PlanTemplate, error)
	List(ctx context.Context, owner string) ([]PlanTemplate, error)
}

// CachedProvider serves plan templates through a freecache layer. Templates
// are immutable once instances reference them, so a short TTL only has to
// cover renames of not-yet-used plans.
type CachedProvider struct {
	repo       templatesRepo
	cache      *freecache.Cache
	ttlSeconds int
}

func NewCachedProvider(repo templatesRepo, cacheSizeBytes int) *CachedProvider {
	return &CachedProvider{
		repo:       repo,
		cache:      freecache.NewCache(cacheSizeBytes),
		ttlSeconds: defaultCacheTTLSeconds,
	}
}

func (p *CachedProvider) Get(ctx context.Context, id int, owner string) (*PlanTemplate, error) {
	key := []byte(fmt.Sprintf("plan||%s||%d", owner, id))

	if cached, err := p.cache.Get(key); err == nil {
		var plan PlanTemplate
		if err := json.Unmarshal(cached, &plan); err == nil {
			plan.Owner = owner
			return &plan, nil
		}
		log.Tracef("plans cache, unmarshal plan %d: cache entry dropped", id)
	}

	plan, err := p.repo.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	planJson, err := json.Marshal(plan)
	if err == nil {
		if err := p.cache.Set(key, planJson, p.ttlSeconds); err != nil {
			log.Tracef("plans cache, set plan %d: %s", id, err)
		}
	}

	return plan, nil
}

// List goes straight to the repo. Lists are cheap and caching them would
// complicate invalidation on plan creation.
func (p *CachedProvider) List(ctx context.Context, owner string) ([]PlanTemplate, error) {
	return p.repo.List(ctx, owner)
}
