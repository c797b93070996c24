package domain

import "time"

// Pricing holds the fixed local-mode pricing policy. Amounts are in the
// currency's minor unit, like every other amount in this package.
type Pricing struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

// DefaultPricing matches the storefront defaults: free shipping from
// 1,000,000 upward, otherwise a flat 50,000 fee.
var DefaultPricing = Pricing{
	FreeShippingThreshold: 1_000_000,
	FlatShippingFee:       50_000,
}

// taxPercent is the flat tax rate applied to the subtotal in local mode.
const taxPercent = 10

type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	Size      string    `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Cart is a value object: items plus aggregates derived from them. It is
// replaced wholesale on every recomputation, never mutated in place.
type Cart struct {
	Items          []CartItem `json:"items"`
	TotalItems     int        `json:"totalItems"`
	Subtotal       int64      `json:"subtotal"`
	TaxAmount      int64      `json:"taxAmount"`
	ShippingAmount int64      `json:"shippingAmount"`
	DiscountAmount int64      `json:"discountAmount"`
	TotalAmount    int64      `json:"totalAmount"`
}

// EmptyCart returns a cart with no items and zeroed aggregates.
func EmptyCart() Cart {
	return Cart{Items: []CartItem{}}
}

// ItemByID returns the line item with the given ID, if any.
func (c Cart) ItemByID(id int64) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

// ItemByProduct returns the line item holding the given product, if any.
func (c Cart) ItemByProduct(productID int64) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// ComputeTotals derives cart aggregates from the item list. It is a pure
// function of items and pricing: recomputing never changes the result.
// Shipping is free once the subtotal reaches the threshold.
func ComputeTotals(items []CartItem, pricing Pricing) Cart {
	if items == nil {
		items = []CartItem{}
	}
	var subtotal int64
	totalItems := 0
	for _, it := range items {
		subtotal += it.Price * int64(it.Quantity)
		totalItems += it.Quantity
	}

	tax := subtotal * taxPercent / 100
	var shipping int64
	if subtotal < pricing.FreeShippingThreshold {
		shipping = pricing.FlatShippingFee
	}
	var discount int64 // reserved for coupon logic, server-side only

	return Cart{
		Items:          items,
		TotalItems:     totalItems,
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ShippingAmount: shipping,
		DiscountAmount: discount,
		TotalAmount:    subtotal + tax + shipping - discount,
	}
}
