// Package cart owns the single source of truth for the session's shopping
// cart. Every mutation goes through the Manager, which talks to the right
// backing store for the session mode, recomputes aggregates, and publishes
// the new snapshot to subscribers.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront-client/internal/api"
	"storefront-client/internal/domain"
	"storefront-client/internal/notify"
	"storefront-client/internal/store"
)

// ErrAuthRequired indicates a remote-only operation was attempted in a
// guest session.
var ErrAuthRequired = errors.New("sign in required")

type cartAPI interface {
	GetCart(ctx context.Context) (domain.Cart, error)
	AddCartItem(ctx context.Context, in api.AddItemInput) (domain.Cart, error)
	UpdateCartItem(ctx context.Context, itemID int64, in api.UpdateItemInput) (domain.Cart, error)
	RemoveCartItem(ctx context.Context, itemID int64) (domain.Cart, error)
	ClearCart(ctx context.Context) (domain.Cart, error)
	MigrateCart(ctx context.Context, items []domain.CartItem) (domain.Cart, error)
	ApplyCoupon(ctx context.Context, code string) (domain.Cart, error)
	RemoveCoupon(ctx context.Context) (domain.Cart, error)
}

// Subscriber receives every published cart snapshot, in mutation order.
type Subscriber func(domain.Cart)

type subscription struct {
	id int
	fn Subscriber
}

// Manager mediates between the guest store and the remote cart. Construct
// one per session with New; there is no package-level instance.
//
// A token present in the token source selects remote mode, where the server
// is authoritative for items and aggregates. Without a token the manager
// operates on the guest cart: mutate a copy, recompute totals, persist,
// publish. Mutations are serialized by an operation mutex, so subscribers
// observe snapshots in issuance order even when the backend is slow.
type Manager struct {
	api      cartAPI
	store    store.Store
	tokens   api.TokenSource
	notifier notify.Notifier
	logger   *log.Logger
	pricing  domain.Pricing

	opMu    sync.Mutex // serializes mutations and publication
	stateMu sync.RWMutex
	current domain.Cart
	ready   bool

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

func New(apiClient cartAPI, st store.Store, tokens api.TokenSource, notifier notify.Notifier, logger *log.Logger, pricing domain.Pricing) *Manager {
	if pricing == (domain.Pricing{}) {
		pricing = domain.DefaultPricing
	}
	return &Manager{
		api:      apiClient,
		store:    st,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		pricing:  pricing,
		current:  domain.EmptyCart(),
	}
}

// Load transitions the manager to ready and publishes the initial cart.
// Remote load failures degrade to an empty cart rather than blocking the
// session; the error is reported through the notifier only.
func (m *Manager) Load(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.remote() {
		cart, err := m.api.GetCart(ctx)
		if err != nil {
			m.logger.Printf("load remote cart: %v", err)
			cart = domain.EmptyCart()
		}
		m.setReady()
		m.publish(cart)
		return nil
	}

	m.setReady()
	m.publish(m.loadGuest(ctx))
	return nil
}

// AddItem adds qty units of the product, merging into an existing line item
// for the same product. The unit price is snapshotted at add time.
func (m *Manager) AddItem(ctx context.Context, product domain.Product, qty int) (domain.Cart, error) {
	if qty < 1 {
		return domain.Cart{}, domain.ErrQuantityTooLow
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureReady(); err != nil {
		return domain.Cart{}, err
	}

	if m.remote() {
		cart, err := m.api.AddCartItem(ctx, api.AddItemInput{
			ProductID: product.ID,
			Quantity:  qty,
			Price:     product.UnitPrice(),
		})
		if err != nil {
			m.notifier.Error("Failed to add item to cart")
			return domain.Cart{}, fmt.Errorf("add to cart: %w", err)
		}
		m.publish(cart)
		m.notifier.Success(fmt.Sprintf("Added %s to cart", product.Name))
		return cart, nil
	}

	items := m.currentItems()
	merged := false
	now := time.Now().UTC()
	for i := range items {
		if items[i].ProductID == product.ID {
			items[i].Quantity += qty
			items[i].UpdatedAt = now
			merged = true
			break
		}
	}
	if !merged {
		snapshot := product
		items = append(items, domain.CartItem{
			ID:        nextGuestItemID(items),
			ProductID: product.ID,
			Product:   &snapshot,
			Quantity:  qty,
			Price:     product.UnitPrice(),
			Size:      product.Size,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	cart, err := m.commitGuest(ctx, items)
	if err != nil {
		m.notifier.Error("Failed to add item to cart")
		return domain.Cart{}, err
	}
	m.notifier.Success(fmt.Sprintf("Added %s to cart", product.Name))
	return cart, nil
}

// UpdateItem sets the quantity of an existing line item. Quantities below 1
// are rejected, never clamped; remove the item instead.
func (m *Manager) UpdateItem(ctx context.Context, itemID int64, qty int) (domain.Cart, error) {
	if qty < 1 {
		return domain.Cart{}, domain.ErrQuantityTooLow
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureReady(); err != nil {
		return domain.Cart{}, err
	}

	if m.remote() {
		item, ok := m.snapshot().ItemByID(itemID)
		if !ok {
			return domain.Cart{}, domain.ErrNotFound
		}
		cart, err := m.api.UpdateCartItem(ctx, itemID, api.UpdateItemInput{
			Quantity:  qty,
			Price:     item.Price,
			ProductID: item.ProductID,
		})
		if err != nil {
			m.notifier.Error("Failed to update cart")
			return domain.Cart{}, fmt.Errorf("update cart item: %w", err)
		}
		m.publish(cart)
		m.notifier.Success("Cart updated successfully")
		return cart, nil
	}

	items := m.currentItems()
	found := false
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = qty
			items[i].UpdatedAt = time.Now().UTC()
			found = true
			break
		}
	}
	if !found {
		return domain.Cart{}, domain.ErrNotFound
	}

	cart, err := m.commitGuest(ctx, items)
	if err != nil {
		m.notifier.Error("Failed to update cart")
		return domain.Cart{}, err
	}
	m.notifier.Success("Cart updated successfully")
	return cart, nil
}

// RemoveItem deletes a line item. In remote mode the server response is
// published and then a full reload runs so the view matches the backend.
func (m *Manager) RemoveItem(ctx context.Context, itemID int64) (domain.Cart, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureReady(); err != nil {
		return domain.Cart{}, err
	}

	if m.remote() {
		cart, err := m.api.RemoveCartItem(ctx, itemID)
		if err != nil {
			m.notifier.Error("Failed to remove item from cart")
			return domain.Cart{}, fmt.Errorf("remove cart item: %w", err)
		}
		m.publish(cart)
		m.notifier.Success("Item removed from cart")
		if reloaded, err := m.api.GetCart(ctx); err != nil {
			m.logger.Printf("reload after remove: %v", err)
		} else {
			m.publish(reloaded)
			cart = reloaded
		}
		return cart, nil
	}

	items := m.currentItems()
	kept := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}

	cart, err := m.commitGuest(ctx, kept)
	if err != nil {
		m.notifier.Error("Failed to remove item from cart")
		return domain.Cart{}, err
	}
	m.notifier.Success("Item removed from cart")
	return cart, nil
}

// Clear resets the cart to empty.
func (m *Manager) Clear(ctx context.Context) (domain.Cart, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureReady(); err != nil {
		return domain.Cart{}, err
	}

	if m.remote() {
		cart, err := m.api.ClearCart(ctx)
		if err != nil {
			m.notifier.Error("Failed to clear cart")
			return domain.Cart{}, fmt.Errorf("clear cart: %w", err)
		}
		m.publish(cart)
		m.notifier.Success("Cart cleared successfully")
		return cart, nil
	}

	empty := domain.EmptyCart()
	if err := m.saveGuest(ctx, empty); err != nil {
		m.notifier.Error("Failed to clear cart")
		return domain.Cart{}, err
	}
	m.publish(empty)
	m.notifier.Success("Cart cleared successfully")
	return empty, nil
}

// MigrateGuestCart transfers the persisted guest cart to the server cart.
// Call it right after login, before any other remote mutation, or guest
// items are lost. On failure the guest cart is kept so migration can be
// retried.
func (m *Manager) MigrateGuestCart(ctx context.Context) (domain.Cart, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureReady(); err != nil {
		return domain.Cart{}, err
	}

	guest := m.loadGuest(ctx)
	if len(guest.Items) == 0 {
		return m.snapshot(), nil
	}

	cart, err := m.api.MigrateCart(ctx, guest.Items)
	if err != nil {
		m.notifier.Error("Failed to migrate cart")
		return domain.Cart{}, fmt.Errorf("migrate guest cart: %w", err)
	}
	if err := m.store.Clear(ctx, store.KeyGuestCart); err != nil {
		m.logger.Printf("clear guest cart after migration: %v", err)
	}
	m.publish(cart)
	return cart, nil
}

// ApplyCoupon asks the server to apply a coupon code. Discounts are always
// server-computed; guest carts cannot hold one.
func (m *Manager) ApplyCoupon(ctx context.Context, code string) (domain.Cart, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureReady(); err != nil {
		return domain.Cart{}, err
	}
	if !m.remote() {
		return domain.Cart{}, ErrAuthRequired
	}

	cart, err := m.api.ApplyCoupon(ctx, code)
	if err != nil {
		m.notifier.Error("Invalid coupon code")
		return domain.Cart{}, fmt.Errorf("apply coupon: %w", err)
	}
	m.publish(cart)
	m.notifier.Success("Coupon applied successfully")
	return cart, nil
}

func (m *Manager) RemoveCoupon(ctx context.Context) (domain.Cart, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureReady(); err != nil {
		return domain.Cart{}, err
	}
	if !m.remote() {
		return domain.Cart{}, ErrAuthRequired
	}

	cart, err := m.api.RemoveCoupon(ctx)
	if err != nil {
		m.notifier.Error("Failed to remove coupon")
		return domain.Cart{}, fmt.Errorf("remove coupon: %w", err)
	}
	m.publish(cart)
	m.notifier.Success("Coupon removed")
	return cart, nil
}

// Subscribe registers fn for every future snapshot and returns a cancel
// function. Delivery is synchronous and ordered.
func (m *Manager) Subscribe(fn Subscriber) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscription{id: id, fn: fn})
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeItems is a derived read-only view of the item list. It is
// computed from the same snapshot stream, never an independent source.
func (m *Manager) SubscribeItems(fn func([]domain.CartItem)) func() {
	return m.Subscribe(func(cart domain.Cart) {
		fn(cart.Items)
	})
}

// Current returns the latest published snapshot.
func (m *Manager) Current() domain.Cart {
	return m.snapshot()
}

// Items returns a copy of the current item list.
func (m *Manager) Items() []domain.CartItem {
	cur := m.snapshot()
	out := make([]domain.CartItem, len(cur.Items))
	copy(out, cur.Items)
	return out
}

func (m *Manager) ItemCount() int {
	return m.snapshot().TotalItems
}

func (m *Manager) IsEmpty() bool {
	return m.snapshot().TotalItems == 0
}

func (m *Manager) InCart(productID int64) bool {
	_, ok := m.snapshot().ItemByProduct(productID)
	return ok
}

func (m *Manager) ItemByProduct(productID int64) (domain.CartItem, bool) {
	return m.snapshot().ItemByProduct(productID)
}

// AmountToFreeShipping returns how much more the subtotal needs before
// shipping is free; zero once the threshold is reached.
func (m *Manager) AmountToFreeShipping() int64 {
	remaining := m.pricing.FreeShippingThreshold - m.snapshot().Subtotal
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Manager) remote() bool {
	return m.tokens != nil && m.tokens.Token() != ""
}

func (m *Manager) ensureReady() error {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if !m.ready {
		return domain.ErrNotReady
	}
	return nil
}

func (m *Manager) setReady() {
	m.stateMu.Lock()
	m.ready = true
	m.stateMu.Unlock()
}

func (m *Manager) snapshot() domain.Cart {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current
}

func (m *Manager) currentItems() []domain.CartItem {
	cur := m.snapshot()
	items := make([]domain.CartItem, len(cur.Items))
	copy(items, cur.Items)
	return items
}

// commitGuest recomputes aggregates, persists the guest cart, and
// publishes. Persisting before publishing keeps the durable copy at least
// as new as anything a subscriber has seen.
func (m *Manager) commitGuest(ctx context.Context, items []domain.CartItem) (domain.Cart, error) {
	cart := domain.ComputeTotals(items, m.pricing)
	if err := m.saveGuest(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	m.publish(cart)
	return cart, nil
}

func (m *Manager) saveGuest(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	if err := m.store.Save(ctx, store.KeyGuestCart, data); err != nil {
		return fmt.Errorf("persist guest cart: %w", err)
	}
	return nil
}

// loadGuest rehydrates the persisted guest cart. A missing or malformed
// payload is "no cart", never an error. Items that violate the quantity
// invariant are dropped and aggregates are recomputed.
func (m *Manager) loadGuest(ctx context.Context) domain.Cart {
	data, err := m.store.Load(ctx, store.KeyGuestCart)
	if err != nil {
		if !errors.Is(err, store.ErrNoValue) {
			m.logger.Printf("load guest cart: %v", err)
		}
		return domain.EmptyCart()
	}
	var stored domain.Cart
	if err := json.Unmarshal(data, &stored); err != nil {
		m.logger.Printf("discard malformed guest cart: %v", err)
		return domain.EmptyCart()
	}
	items := stored.Items[:0]
	for _, it := range stored.Items {
		if it.Quantity >= 1 {
			items = append(items, it)
		}
	}
	return domain.ComputeTotals(items, m.pricing)
}

// publish must run with opMu held so subscribers see snapshots in
// mutation order.
func (m *Manager) publish(cart domain.Cart) {
	m.stateMu.Lock()
	m.current = cart
	m.stateMu.Unlock()

	m.subMu.Lock()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()

	for _, s := range subs {
		s.fn(cart)
	}
}

// nextGuestItemID generates a per-session line-item ID from the
// millisecond clock, bumped past any collision from rapid adds.
func nextGuestItemID(items []domain.CartItem) int64 {
	id := time.Now().UnixMilli()
	for {
		taken := false
		for _, it := range items {
			if it.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		id++
	}
}
