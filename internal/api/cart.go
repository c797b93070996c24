package api

import (
	"context"
	"fmt"

	"storefront-client/internal/domain"
)

// AddItemInput is the line-item payload for POST /cart/items. Price is the
// client's snapshot; the server re-validates it.
type AddItemInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// UpdateItemInput carries quantity plus price and product for backend
// reconciliation, matching PUT /cart/items/{id}.
type UpdateItemInput struct {
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
	ProductID int64 `json:"productId"`
}

func (c *Client) GetCart(ctx context.Context) (domain.Cart, error) {
	var cart domain.Cart
	err := c.get(ctx, "/cart", &cart)
	return cart, err
}

func (c *Client) AddCartItem(ctx context.Context, in AddItemInput) (domain.Cart, error) {
	var cart domain.Cart
	err := c.post(ctx, "/cart/items", in, &cart)
	return cart, err
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, in UpdateItemInput) (domain.Cart, error) {
	var cart domain.Cart
	err := c.put(ctx, fmt.Sprintf("/cart/items/%d", itemID), in, &cart)
	return cart, err
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) (domain.Cart, error) {
	var cart domain.Cart
	err := c.delete(ctx, fmt.Sprintf("/cart/items/%d", itemID), &cart)
	return cart, err
}

func (c *Client) ClearCart(ctx context.Context) (domain.Cart, error) {
	var cart domain.Cart
	err := c.delete(ctx, "/cart", &cart)
	return cart, err
}

// MigrateCart posts guest items to the migration endpoint and returns the
// merged server cart.
func (c *Client) MigrateCart(ctx context.Context, items []domain.CartItem) (domain.Cart, error) {
	var cart domain.Cart
	payload := struct {
		Items []domain.CartItem `json:"items"`
	}{Items: items}
	err := c.post(ctx, "/cart/migrate", payload, &cart)
	return cart, err
}

func (c *Client) ApplyCoupon(ctx context.Context, code string) (domain.Cart, error) {
	var cart domain.Cart
	payload := struct {
		CouponCode string `json:"couponCode"`
	}{CouponCode: code}
	err := c.post(ctx, "/cart/coupon", payload, &cart)
	return cart, err
}

func (c *Client) RemoveCoupon(ctx context.Context) (domain.Cart, error) {
	var cart domain.Cart
	err := c.delete(ctx, "/cart/coupon", &cart)
	return cart, err
}

func (c *Client) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Order, error) {
	var order domain.Order
	err := c.post(ctx, "/cart/checkout", req, &order)
	return order, err
}
