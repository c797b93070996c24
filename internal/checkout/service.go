// Package checkout turns the current cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"storefront-client/internal/domain"
	"storefront-client/internal/notify"
)

type checkoutAPI interface {
	Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Order, error)
}

type cartSource interface {
	Current() domain.Cart
	Clear(ctx context.Context) (domain.Cart, error)
}

type Service struct {
	api      checkoutAPI
	cart     cartSource
	notifier notify.Notifier
	logger   *log.Logger
}

func New(apiClient checkoutAPI, cart cartSource, notifier notify.Notifier, logger *log.Logger) *Service {
	return &Service{api: apiClient, cart: cart, notifier: notifier, logger: logger}
}

// Input is the customer detail form for an order. BillingAddress defaults
// to the shipping address when empty.
type Input struct {
	Email           string
	FirstName       string
	LastName        string
	Phone           string
	ShippingAddress string
	BillingAddress  string
	ShippingMethod  string
	Notes           string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return errors.New("email required")
	}
	if strings.TrimSpace(in.FirstName) == "" && strings.TrimSpace(in.LastName) == "" {
		return errors.New("name required")
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return errors.New("shipping address required")
	}
	return nil
}

// PlaceOrder posts the current cart's items with their price snapshots as
// an order, then clears the cart. A failed clear is logged, not fatal: the
// order already exists.
func (s *Service) PlaceOrder(ctx context.Context, in Input) (domain.Order, error) {
	if err := in.validate(); err != nil {
		return domain.Order{}, err
	}
	cur := s.cart.Current()
	if len(cur.Items) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	items := make([]domain.CheckoutItem, 0, len(cur.Items))
	for _, it := range cur.Items {
		items = append(items, domain.CheckoutItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	billing := in.BillingAddress
	if strings.TrimSpace(billing) == "" {
		billing = in.ShippingAddress
	}
	req := domain.CheckoutRequest{
		CustomerEmail:   in.Email,
		CustomerName:    strings.TrimSpace(in.FirstName + " " + in.LastName),
		CustomerPhone:   in.Phone,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  billing,
		ShippingMethod:  in.ShippingMethod,
		Notes:           in.Notes,
		Items:           items,
	}

	order, err := s.api.Checkout(ctx, req)
	if err != nil {
		s.notifier.Error("Failed to place order")
		return domain.Order{}, fmt.Errorf("place order: %w", err)
	}
	s.notifier.Success("Order placed successfully!")

	if _, err := s.cart.Clear(ctx); err != nil {
		s.logger.Printf("clear cart after checkout: %v", err)
	}
	return order, nil
}
