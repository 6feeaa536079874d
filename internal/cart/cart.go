package cart

import (
	"context"
	"fmt"

	"pasal/internal/commerce"
)

// API is the slice of the commerce client the cart orchestrator needs.
type API interface {
	CartItems(ctx context.Context, userID int64) ([]commerce.CartItem, error)
	AddToCart(ctx context.Context, userID, productID int64, quantity int) error
	UpdateCartItem(ctx context.Context, cartItemID int64, quantity int) error
	RemoveFromCart(ctx context.Context, cartItemID int64) error
}

// View is the cart as rendered: the remote items plus display aggregates.
// The totals are the only cart math this application does; pricing and
// stock reservation belong to the commerce API.
type View struct {
	Items      []commerce.CartItem `json:"items"`
	TotalItems int                 `json:"total_items"`
	TotalPrice float64             `json:"total_price"`
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// Totals aggregates quantities and line prices for display.
func Totals(items []commerce.CartItem) (int, float64) {
	var count int
	var price float64
	for _, item := range items {
		count += item.Quantity
		price += item.Product.CurrentPrice * float64(item.Quantity)
	}
	return count, price
}

func (s *Service) View(ctx context.Context, userID int64) (*View, error) {
	items, err := s.api.CartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, price := Totals(items)
	return &View{Items: items, TotalItems: count, TotalPrice: price}, nil
}

func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return s.api.AddToCart(ctx, userID, productID, quantity)
}

func (s *Service) UpdateQty(ctx context.Context, cartItemID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return s.api.UpdateCartItem(ctx, cartItemID, quantity)
}

func (s *Service) Remove(ctx context.Context, cartItemID int64) error {
	return s.api.RemoveFromCart(ctx, cartItemID)
}
