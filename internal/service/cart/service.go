package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cartify/internal/domain"
	"cartify/internal/repository/blob"
	"go.uber.org/zap"
)

// ErrLocked is returned for mutations while a checkout holds the cart.
var ErrLocked = errors.New("cart is locked while checkout is in progress")

type blobStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// persisted is the on-disk shape of the cart blob.
type persisted struct {
	Items []domain.LineItem `json:"items"`
}

// Store is the in-memory cart with write-behind persistence. Mutations
// apply synchronously in call order; a single background writer flushes the
// latest state to the blob store.
type Store struct {
	repo         blobStore
	logger       *zap.Logger
	flushTimeout time.Duration

	mu   sync.Mutex
	cart domain.Cart
	held bool

	writeMu sync.Mutex
	dirty   chan struct{}
	stop    chan struct{}
	done    chan struct{}
	closed  sync.Once
}

func New(repo blobStore, logger *zap.Logger, flushTimeout time.Duration) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if flushTimeout <= 0 {
		flushTimeout = 5 * time.Second
	}
	s := &Store{
		repo:         repo,
		logger:       logger,
		flushTimeout: flushTimeout,
		dirty:        make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go s.writer()
	return s
}

// Load replaces the in-memory cart with the persisted blob. A missing or
// corrupt blob, or a store read failure, yields an empty cart; failures are
// only logged.
func (s *Store) Load(ctx context.Context) {
	raw, err := s.repo.Get(ctx, blob.KeyCart)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("cart: load failed, starting empty", zap.Error(err))
	}

	var items []domain.LineItem
	if err == nil {
		var p persisted
		if jerr := json.Unmarshal([]byte(raw), &p); jerr != nil {
			s.logger.Warn("cart: ignoring corrupt blob", zap.Error(jerr))
		} else {
			items = normalize(p.Items)
		}
	}

	s.mu.Lock()
	s.cart.Items = items
	s.cart.Version++
	s.mu.Unlock()
}

// normalize folds duplicate rows and drops rows that could not have been
// produced by a valid mutation.
func normalize(in []domain.LineItem) []domain.LineItem {
	var out []domain.LineItem
	index := make(map[string]int, len(in))
	for _, item := range in {
		if item.ProductID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() || item.Weight.IsNegative() {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}

// Add inserts product or, if already present, adds qty to its row.
func (s *Store) Add(product domain.Product, qty int) (domain.Cart, error) {
	if err := validateAdd(product, qty); err != nil {
		return domain.Cart{}, err
	}
	return s.mutate(func(c *domain.Cart) error {
		if i, ok := c.Find(product.ID); ok {
			c.Items[i].Quantity += qty
			return nil
		}
		c.Items = append(c.Items, domain.LineItem{
			ProductID:   product.ID,
			Name:        product.Name,
			ProductCode: product.ProductCode,
			UnitPrice:   product.Price,
			Quantity:    qty,
			Weight:      product.Weight,
		})
		return nil
	})
}

func validateAdd(product domain.Product, qty int) error {
	switch {
	case strings.TrimSpace(product.ID) == "":
		return fmt.Errorf("%w: product id required", domain.ErrValidation)
	case qty < 1:
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	case product.Price.IsNegative():
		return fmt.Errorf("%w: negative price", domain.ErrValidation)
	case product.Weight.IsNegative():
		return fmt.Errorf("%w: negative weight", domain.ErrValidation)
	}
	return nil
}

func (s *Store) Increment(productID string) (domain.Cart, error) {
	return s.mutate(func(c *domain.Cart) error {
		i, ok := c.Find(productID)
		if !ok {
			return fmt.Errorf("cart item %q: %w", productID, domain.ErrNotFound)
		}
		c.Items[i].Quantity++
		return nil
	})
}

// Decrement lowers the quantity by one and removes the row instead of
// reaching zero.
func (s *Store) Decrement(productID string) (domain.Cart, error) {
	return s.mutate(func(c *domain.Cart) error {
		i, ok := c.Find(productID)
		if !ok {
			return fmt.Errorf("cart item %q: %w", productID, domain.ErrNotFound)
		}
		if c.Items[i].Quantity <= 1 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
		c.Items[i].Quantity--
		return nil
	})
}

func (s *Store) Remove(productID string) (domain.Cart, error) {
	return s.mutate(func(c *domain.Cart) error {
		i, ok := c.Find(productID)
		if !ok {
			return fmt.Errorf("cart item %q: %w", productID, domain.ErrNotFound)
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	})
}

// Clear empties the cart and lifts any hold. Only the fulfillment
// dispatcher calls it.
func (s *Store) Clear() domain.Cart {
	out, _ := s.apply(true, func(c *domain.Cart) error {
		c.Items = nil
		return nil
	})
	return out
}

// Hold locks the cart against mutation while it is still at version, so the
// cart a bill was priced from cannot change under a fulfillment call. It
// reports false and leaves the cart unlocked if the cart has moved on.
func (s *Store) Hold(version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart.Version != version {
		return false
	}
	s.held = true
	return true
}

// Release lifts a hold without changing the cart.
func (s *Store) Release() {
	s.mu.Lock()
	s.held = false
	s.mu.Unlock()
}

// Snapshot returns a copy that later mutations cannot affect.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Version returns the current mutation counter.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Version
}

func (s *Store) mutate(fn func(c *domain.Cart) error) (domain.Cart, error) {
	return s.apply(false, fn)
}

// apply runs fn on a working copy so a failing fn leaves the cart as it
// was, then publishes the copy and schedules a flush. Only a clear may pass
// a hold, and it releases it.
func (s *Store) apply(force bool, fn func(c *domain.Cart) error) (domain.Cart, error) {
	s.mu.Lock()
	if s.held && !force {
		s.mu.Unlock()
		return domain.Cart{}, ErrLocked
	}
	next := s.cart.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return domain.Cart{}, err
	}
	next.Version = s.cart.Version + 1
	s.cart = next
	if force {
		s.held = false
	}
	out := next.Clone()
	s.mu.Unlock()

	s.markDirty()
	return out, nil
}

func (s *Store) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Store) writer() {
	defer close(s.done)
	for {
		select {
		case <-s.dirty:
			ctx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
			if err := s.persist(ctx); err != nil {
				s.logger.Warn("cart: persist failed, will retry on next change", zap.Error(err))
			}
			cancel()
		case <-s.stop:
			return
		}
	}
}

// persist writes the state current at the time it takes the write lock, so
// the last flush always carries the last mutation.
func (s *Store) persist(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap := s.Snapshot()
	if snap.IsEmpty() {
		return s.repo.Remove(ctx, blob.KeyCart)
	}
	data, err := json.Marshal(persisted{Items: snap.Items})
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return s.repo.Set(ctx, blob.KeyCart, string(data))
}

// Flush synchronously writes the current cart.
func (s *Store) Flush(ctx context.Context) error {
	if err := s.persist(ctx); err != nil {
		s.logger.Warn("cart: flush failed", zap.Error(err))
		return err
	}
	return nil
}

// Close stops the background writer and performs a final flush.
func (s *Store) Close(ctx context.Context) error {
	s.closed.Do(func() { close(s.stop) })
	<-s.done
	return s.Flush(ctx)
}
