package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"storefront-client/internal/domain"
	"storefront-client/internal/notify"
)

type stubCheckoutAPI struct {
	order   domain.Order
	err     error
	lastReq domain.CheckoutRequest
}

func (s *stubCheckoutAPI) Checkout(_ context.Context, req domain.CheckoutRequest) (domain.Order, error) {
	s.lastReq = req
	return s.order, s.err
}

type stubCart struct {
	current    domain.Cart
	clearCalls int
	clearErr   error
}

func (s *stubCart) Current() domain.Cart { return s.current }

func (s *stubCart) Clear(_ context.Context) (domain.Cart, error) {
	s.clearCalls++
	return domain.EmptyCart(), s.clearErr
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func filledCart() domain.Cart {
	return domain.ComputeTotals([]domain.CartItem{
		{ID: 1, ProductID: 7, Quantity: 2, Price: 100_000},
		{ID: 2, ProductID: 8, Quantity: 1, Price: 50_000},
	}, domain.DefaultPricing)
}

func TestPlaceOrderBuildsRequestFromCart(t *testing.T) {
	apiStub := &stubCheckoutAPI{order: domain.Order{ID: 42, OrderNumber: "ORD-42"}}
	cart := &stubCart{current: filledCart()}
	recorder := &notify.Recorder{}
	svc := New(apiStub, cart, recorder, logDiscard())

	order, err := svc.PlaceOrder(context.Background(), Input{
		Email:           "ana@example.com",
		FirstName:       "Ana",
		LastName:        "Tran",
		ShippingAddress: "12 Ly Thuong Kiet, Hanoi",
		ShippingMethod:  "standard",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.ID != 42 {
		t.Fatalf("order = %+v", order)
	}

	req := apiStub.lastReq
	if req.CustomerName != "Ana Tran" || req.CustomerEmail != "ana@example.com" {
		t.Fatalf("customer fields = %+v", req)
	}
	if req.BillingAddress != req.ShippingAddress {
		t.Fatalf("billing should default to shipping, got %q", req.BillingAddress)
	}
	if len(req.Items) != 2 || req.Items[0].ProductID != 7 || req.Items[0].Quantity != 2 || req.Items[0].Price != 100_000 {
		t.Fatalf("items = %+v", req.Items)
	}
	if cart.clearCalls != 1 {
		t.Fatalf("clearCalls = %d, want 1", cart.clearCalls)
	}
	if len(recorder.Successes) != 1 {
		t.Fatalf("successes = %v", recorder.Successes)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	svc := New(&stubCheckoutAPI{}, &stubCart{current: filledCart()}, &notify.Recorder{}, logDiscard())

	if _, err := svc.PlaceOrder(context.Background(), Input{FirstName: "A", ShippingAddress: "x"}); err == nil {
		t.Fatal("expected email validation error")
	}
	if _, err := svc.PlaceOrder(context.Background(), Input{Email: "a@b.c", ShippingAddress: "x"}); err == nil {
		t.Fatal("expected name validation error")
	}
	if _, err := svc.PlaceOrder(context.Background(), Input{Email: "a@b.c", FirstName: "A"}); err == nil {
		t.Fatal("expected address validation error")
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc := New(&stubCheckoutAPI{}, &stubCart{current: domain.EmptyCart()}, &notify.Recorder{}, logDiscard())
	_, err := svc.PlaceOrder(context.Background(), Input{
		Email: "a@b.c", FirstName: "A", ShippingAddress: "x",
	})
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestPlaceOrderBackendFailureKeepsCart(t *testing.T) {
	cart := &stubCart{current: filledCart()}
	recorder := &notify.Recorder{}
	svc := New(&stubCheckoutAPI{err: errors.New("boom")}, cart, recorder, logDiscard())

	if _, err := svc.PlaceOrder(context.Background(), Input{
		Email: "a@b.c", FirstName: "A", ShippingAddress: "x",
	}); err == nil {
		t.Fatal("expected backend error")
	}
	if cart.clearCalls != 0 {
		t.Fatal("cart cleared despite failed order")
	}
	if len(recorder.Errors) != 1 {
		t.Fatalf("errors = %v", recorder.Errors)
	}
}
