package api

import (
	"context"
	"fmt"

	"storefront-client/internal/domain"
)

func (c *Client) ListOrders(ctx context.Context, page, size int) (domain.Page[domain.Order], error) {
	if size <= 0 {
		size = 10
	}
	var out domain.Page[domain.Order]
	err := c.get(ctx, fmt.Sprintf("/user/orders?page=%d&size=%d", page, size), &out)
	return out, err
}

func (c *Client) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var order domain.Order
	err := c.get(ctx, fmt.Sprintf("/user/orders/%d", id), &order)
	return order, err
}

// CancelOrder cancels a pending order; the backend rejects later states.
func (c *Client) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	var order domain.Order
	err := c.put(ctx, fmt.Sprintf("/user/orders/%d/cancel", id), struct{}{}, &order)
	return order, err
}
