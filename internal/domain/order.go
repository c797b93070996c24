package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"orderNumber"`
	UserID          int64       `json:"userId"`
	Status          OrderStatus `json:"status"`
	Subtotal        int64       `json:"subtotal"`
	TaxAmount       int64       `json:"taxAmount"`
	ShippingAmount  int64       `json:"shippingAmount"`
	DiscountAmount  int64       `json:"discountAmount"`
	TotalAmount     int64       `json:"totalAmount"`
	Currency        string      `json:"currency,omitempty"`
	ShippingAddress string      `json:"shippingAddress,omitempty"`
	BillingAddress  string      `json:"billingAddress,omitempty"`
	ShippingMethod  string      `json:"shippingMethod,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"orderId"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	TotalPrice  int64  `json:"totalPrice"`
}

// CheckoutRequest is the payload posted to the checkout endpoint. Items
// carry the price snapshot from the cart, not a fresh product read.
type CheckoutRequest struct {
	CustomerEmail   string         `json:"customerEmail"`
	CustomerName    string         `json:"customerName"`
	CustomerPhone   string         `json:"customerPhone,omitempty"`
	ShippingAddress string         `json:"shippingAddress"`
	BillingAddress  string         `json:"billingAddress,omitempty"`
	ShippingMethod  string         `json:"shippingMethod,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	Items           []CheckoutItem `json:"items"`
}

type CheckoutItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// Page is the server's pagination envelope for list endpoints.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}
