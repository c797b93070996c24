package httpserver

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront-client/internal/domain"
)

// Backend holds all demo state in memory behind one mutex. Carts are keyed
// by user; totals are recomputed server-side on every mutation so the
// server stays authoritative in remote mode.
type Backend struct {
	mu      sync.Mutex
	pricing domain.Pricing

	products   []domain.Product
	categories []domain.Category

	accounts map[string]*account // by username
	tokens   map[string]int64    // token -> user ID
	carts    map[int64]*userCart // user ID -> cart state
	orders   map[int64][]domain.Order

	nextID int64
}

type account struct {
	user     domain.User
	password string
}

type userCart struct {
	items    []domain.CartItem
	discount int64
}

// CouponCode is the only coupon the demo backend accepts: 10% off the
// subtotal.
const CouponCode = "WELCOME10"

func NewBackend(pricing domain.Pricing) *Backend {
	if pricing == (domain.Pricing{}) {
		pricing = domain.DefaultPricing
	}
	return &Backend{
		pricing:  pricing,
		accounts: make(map[string]*account),
		tokens:   make(map[string]int64),
		carts:    make(map[int64]*userCart),
		orders:   make(map[int64][]domain.Order),
		nextID:   1000,
	}
}

// SeedCatalog replaces the product and category lists.
func (b *Backend) SeedCatalog(products []domain.Product, categories []domain.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = products
	b.categories = categories
}

// SeedDemoCatalog loads a small fixed catalog for the demo binary.
func (b *Backend) SeedDemoCatalog() {
	now := time.Now().UTC()
	b.SeedCatalog(
		[]domain.Product{
			{ID: 1, ProductCode: "TS-001", Name: "Basic Tee", Slug: "basic-tee", Price: 150_000, StockQuantity: 120, CategoryID: 1, IsActive: true, CreatedAt: now},
			{ID: 2, ProductCode: "TS-002", Name: "Graphic Tee", Slug: "graphic-tee", Price: 220_000, SalePrice: 180_000, StockQuantity: 60, CategoryID: 1, IsActive: true, CreatedAt: now},
			{ID: 3, ProductCode: "SN-001", Name: "Canvas Sneakers", Slug: "canvas-sneakers", Price: 750_000, StockQuantity: 25, CategoryID: 2, IsActive: true, CreatedAt: now},
			{ID: 4, ProductCode: "BP-001", Name: "Daypack 20L", Slug: "daypack-20l", Price: 1_250_000, StockQuantity: 14, CategoryID: 3, IsActive: true, CreatedAt: now},
		},
		[]domain.Category{
			{ID: 1, Name: "Shirts", Slug: "shirts", SortOrder: 1, IsActive: true, CreatedAt: now},
			{ID: 2, Name: "Shoes", Slug: "shoes", SortOrder: 2, IsActive: true, CreatedAt: now},
			{ID: 3, Name: "Bags", Slug: "bags", SortOrder: 3, IsActive: true, CreatedAt: now},
		},
	)
}

func (b *Backend) register(username, email, firstName, lastName, phone, password string) (domain.User, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, "", fmt.Errorf("username and password required")
	}
	if _, exists := b.accounts[username]; exists {
		return domain.User{}, "", fmt.Errorf("username taken")
	}
	b.nextID++
	user := domain.User{
		ID:        b.nextID,
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		IsActive:  true,
		Roles:     []domain.Role{{ID: 1, Name: "USER"}},
		CreatedAt: time.Now().UTC(),
	}
	b.accounts[username] = &account{user: user, password: password}
	token := randomToken()
	b.tokens[token] = user.ID
	return user, token, nil
}

func (b *Backend) login(username, password string) (domain.User, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[username]
	if !ok || acc.password != password {
		return domain.User{}, "", false
	}
	token := randomToken()
	b.tokens[token] = acc.user.ID
	return acc.user, token, true
}

func (b *Backend) logout(token string) {
	b.mu.Lock()
	delete(b.tokens, token)
	b.mu.Unlock()
}

func (b *Backend) userForToken(token string) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.tokens[token]
	return id, ok
}

func (b *Backend) listProducts(page, size int, search string, categoryID int64) domain.Page[domain.Product] {
	b.mu.Lock()
	defer b.mu.Unlock()
	matched := make([]domain.Product, 0, len(b.products))
	for _, p := range b.products {
		if !p.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		if categoryID > 0 && p.CategoryID != categoryID {
			continue
		}
		matched = append(matched, p)
	}
	if size <= 0 {
		size = 10
	}
	total := len(matched)
	totalPages := (total + size - 1) / size
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return domain.Page[domain.Product]{
		Content:       matched[start:end],
		TotalElements: int64(total),
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

func (b *Backend) getProduct(id int64) (domain.Product, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findProduct(id)
}

func (b *Backend) findProduct(id int64) (domain.Product, bool) {
	for _, p := range b.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (b *Backend) listCategories() []domain.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Category(nil), b.categories...)
}

func (b *Backend) cartFor(userID int64) *userCart {
	c, ok := b.carts[userID]
	if !ok {
		c = &userCart{}
		b.carts[userID] = c
	}
	return c
}

// render recomputes totals and layers the coupon discount on top.
func (b *Backend) render(c *userCart) domain.Cart {
	cart := domain.ComputeTotals(append([]domain.CartItem(nil), c.items...), b.pricing)
	if c.discount > 0 {
		cart.DiscountAmount = c.discount
		cart.TotalAmount -= c.discount
	}
	return cart
}

func (b *Backend) getCart(userID int64) domain.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.render(b.cartFor(userID))
}

func (b *Backend) addItem(userID, productID int64, qty int, price int64) (domain.Cart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if qty < 1 {
		return domain.Cart{}, fmt.Errorf("quantity must be positive")
	}
	product, ok := b.findProduct(productID)
	if !ok {
		return domain.Cart{}, fmt.Errorf("product %d not found", productID)
	}
	if price <= 0 {
		price = product.UnitPrice()
	}
	c := b.cartFor(userID)
	now := time.Now().UTC()
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity += qty
			c.items[i].UpdatedAt = now
			return b.render(c), nil
		}
	}
	b.nextID++
	snapshot := product
	c.items = append(c.items, domain.CartItem{
		ID:        b.nextID,
		UserID:    userID,
		ProductID: productID,
		Product:   &snapshot,
		Quantity:  qty,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return b.render(c), nil
}

func (b *Backend) updateItem(userID, itemID int64, qty int) (domain.Cart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if qty < 1 {
		return domain.Cart{}, fmt.Errorf("quantity must be positive")
	}
	c := b.cartFor(userID)
	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items[i].Quantity = qty
			c.items[i].UpdatedAt = time.Now().UTC()
			return b.render(c), nil
		}
	}
	return domain.Cart{}, fmt.Errorf("cart item %d not found", itemID)
}

func (b *Backend) removeItem(userID, itemID int64) (domain.Cart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartFor(userID)
	kept := c.items[:0]
	found := false
	for _, it := range c.items {
		if it.ID == itemID {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return domain.Cart{}, fmt.Errorf("cart item %d not found", itemID)
	}
	c.items = kept
	return b.render(c), nil
}

func (b *Backend) clearCart(userID int64) domain.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartFor(userID)
	c.items = nil
	c.discount = 0
	return b.render(c)
}

// migrate merges guest items into the server cart by product.
func (b *Backend) migrate(userID int64, items []domain.CartItem) domain.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartFor(userID)
	now := time.Now().UTC()
	for _, guest := range items {
		if guest.Quantity < 1 {
			continue
		}
		merged := false
		for i := range c.items {
			if c.items[i].ProductID == guest.ProductID {
				c.items[i].Quantity += guest.Quantity
				c.items[i].UpdatedAt = now
				merged = true
				break
			}
		}
		if merged {
			continue
		}
		b.nextID++
		item := guest
		item.ID = b.nextID
		item.UserID = userID
		item.CreatedAt = now
		item.UpdatedAt = now
		c.items = append(c.items, item)
	}
	return b.render(c)
}

func (b *Backend) applyCoupon(userID int64, code string) (domain.Cart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !strings.EqualFold(strings.TrimSpace(code), CouponCode) {
		return domain.Cart{}, fmt.Errorf("invalid coupon code")
	}
	c := b.cartFor(userID)
	subtotal := domain.ComputeTotals(c.items, b.pricing).Subtotal
	c.discount = subtotal / 10
	return b.render(c), nil
}

func (b *Backend) removeCoupon(userID int64) domain.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartFor(userID)
	c.discount = 0
	return b.render(c)
}

func (b *Backend) checkout(userID int64, req domain.CheckoutRequest) (domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(req.Items) == 0 {
		return domain.Order{}, fmt.Errorf("no items to order")
	}
	items := make([]domain.CartItem, 0, len(req.Items))
	orderItems := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.CartItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	totals := domain.ComputeTotals(items, b.pricing)

	b.nextID++
	orderID := b.nextID
	for _, it := range req.Items {
		b.nextID++
		name := ""
		if p, ok := b.findProduct(it.ProductID); ok {
			name = p.Name
		}
		orderItems = append(orderItems, domain.OrderItem{
			ID:          b.nextID,
			OrderID:     orderID,
			ProductID:   it.ProductID,
			ProductName: name,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
			TotalPrice:  it.Price * int64(it.Quantity),
		})
	}
	order := domain.Order{
		ID:              orderID,
		OrderNumber:     fmt.Sprintf("ORD-%d", orderID),
		UserID:          userID,
		Status:          domain.OrderPending,
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.TaxAmount,
		ShippingAmount:  totals.ShippingAmount,
		DiscountAmount:  totals.DiscountAmount,
		TotalAmount:     totals.TotalAmount,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		ShippingMethod:  req.ShippingMethod,
		Notes:           req.Notes,
		Items:           orderItems,
		CreatedAt:       time.Now().UTC(),
	}
	b.orders[userID] = append(b.orders[userID], order)

	c := b.cartFor(userID)
	c.items = nil
	c.discount = 0
	return order, nil
}

func (b *Backend) listOrders(userID int64, page, size int) domain.Page[domain.Order] {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := b.orders[userID]
	if size <= 0 {
		size = 10
	}
	total := len(all)
	totalPages := (total + size - 1) / size
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return domain.Page[domain.Order]{
		Content:       append([]domain.Order(nil), all[start:end]...),
		TotalElements: int64(total),
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

func (b *Backend) getOrder(userID, orderID int64) (domain.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders[userID] {
		if o.ID == orderID {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (b *Backend) cancelOrder(userID, orderID int64) (domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	orders := b.orders[userID]
	for i := range orders {
		if orders[i].ID == orderID {
			if orders[i].Status != domain.OrderPending {
				return domain.Order{}, fmt.Errorf("order %s is %s, only pending orders can be cancelled", orders[i].OrderNumber, orders[i].Status)
			}
			orders[i].Status = domain.OrderCancelled
			orders[i].UpdatedAt = time.Now().UTC()
			return orders[i], nil
		}
	}
	return domain.Order{}, fmt.Errorf("order %d not found", orderID)
}

func randomToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
