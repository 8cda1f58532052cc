package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pixelhunt/internal/domain"
)

// CategoryLoader fetches categories from a backing store (catalog file, Postgres).
type CategoryLoader interface {
	LoadCategory(ctx context.Context, categoryID string) (domain.Category, error)
}

// CategoryRepository caches categories with TTL to avoid repeated loads.
type CategoryRepository struct {
	loader CategoryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedCategory
}

type cachedCategory struct {
	category  domain.Category
	expiresAt time.Time
}

func NewCategoryRepository(loader CategoryLoader, ttl time.Duration) *CategoryRepository {
	return &CategoryRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCategory),
	}
}

func (r *CategoryRepository) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	if c, ok := r.lookup(categoryID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(categoryID, func() (interface{}, error) {
		if c, ok := r.lookup(categoryID); ok {
			return c, nil
		}

		category, err := r.loader.LoadCategory(ctx, categoryID)
		if err != nil {
			return domain.Category{}, err
		}

		r.mu.Lock()
		r.cache[categoryID] = cachedCategory{
			category:  category,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return category, nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return result.(domain.Category), nil
}

func (r *CategoryRepository) lookup(categoryID string) (domain.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[categoryID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Category{}, false
	}
	return entry.category, true
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCategoryLoader serves categories from memory (catalog file, tests).
type StaticCategoryLoader struct {
	order      []string
	categories map[string]domain.Category
}

// NewStaticCategoryLoader lists categories sorted by id.
func NewStaticCategoryLoader(categories map[string]domain.Category) *StaticCategoryLoader {
	order := make([]string, 0, len(categories))
	for id := range categories {
		order = append(order, id)
	}
	sort.Strings(order)
	return &StaticCategoryLoader{order: order, categories: categories}
}

// NewOrderedCategoryLoader lists categories in the order given. Later
// duplicates replace earlier ones.
func NewOrderedCategoryLoader(categories []domain.Category) *StaticCategoryLoader {
	l := &StaticCategoryLoader{categories: make(map[string]domain.Category, len(categories))}
	for _, c := range categories {
		if _, seen := l.categories[c.ID]; !seen {
			l.order = append(l.order, c.ID)
		}
		l.categories[c.ID] = c
	}
	return l
}

func (l *StaticCategoryLoader) ListCategories(_ context.Context) ([]domain.CategorySummary, error) {
	out := make([]domain.CategorySummary, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.categories[id].Summary())
	}
	return out, nil
}

func (l *StaticCategoryLoader) LoadCategory(_ context.Context, categoryID string) (domain.Category, error) {
	if c, ok := l.categories[categoryID]; ok {
		return c, nil
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}
