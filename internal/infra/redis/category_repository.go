package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"pixelhunt/internal/domain"
	"pixelhunt/internal/infra/memory"
)

// CategoryRepository caches categories in Redis and falls back to a loader on cache miss.
// Each category is stored as one JSON document: SET pixelhunt:category:{id} {json} EX ttl
type CategoryRepository struct {
	client *redis.Client
	loader memory.CategoryLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCategoryRepository(client *redis.Client, loader memory.CategoryLoader, ttl time.Duration) *CategoryRepository {
	return &CategoryRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CategoryRepository) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	if c, ok := r.cached(ctx, categoryID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(categoryID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if c, ok := r.cached(ctx, categoryID); ok {
			return c, nil
		}

		category, err := r.loader.LoadCategory(ctx, categoryID)
		if err != nil {
			return domain.Category{}, err
		}

		payload, err := json.Marshal(category)
		if err != nil {
			return domain.Category{}, err
		}
		if err := r.client.Set(ctx, r.key(categoryID), payload, r.ttlWithJitter()).Err(); err != nil {
			log.Warn().Err(err).Str("category", categoryID).Msg("cache category failed")
		}
		return category, nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return result.(domain.Category), nil
}

// Invalidate drops the cached copy so the next read goes to the loader.
func (r *CategoryRepository) Invalidate(ctx context.Context, categoryID string) error {
	return r.client.Del(ctx, r.key(categoryID)).Err()
}

func (r *CategoryRepository) cached(ctx context.Context, categoryID string) (domain.Category, bool) {
	raw, err := r.client.Get(ctx, r.key(categoryID)).Bytes()
	if err != nil {
		return domain.Category{}, false
	}
	var c domain.Category
	if err := json.Unmarshal(raw, &c); err != nil {
		log.Warn().Err(err).Str("category", categoryID).Msg("discarding corrupt cached category")
		return domain.Category{}, false
	}
	return c, true
}

func (r *CategoryRepository) key(categoryID string) string {
	return "pixelhunt:category:" + categoryID
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
