// Package order turns accumulated chat items into an order request.
package order

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Rrens/order-intake/internal/domain"
)

var validate = validator.New()

// Promote converts a complete item under construction into an order line
func Promote(item *domain.PartialOrderItem) (domain.OrderLineItem, error) {
	if item == nil || !item.IsComplete() {
		return domain.OrderLineItem{}, domain.ErrIncompleteItem
	}
	return domain.OrderLineItem{
		ProductCode: item.ProductCode,
		Height:      item.Height,
		Width:       item.Width,
		Thickness:   item.Thickness.Decimal,
		Quantity:    item.Quantity,
	}, nil
}

// Build materialises the request for the order-creation collaborator.
// Items keep their insertion order.
func Build(customerID, phone string, items []domain.OrderLineItem) (domain.OrderRequest, error) {
	if len(items) == 0 {
		return domain.OrderRequest{}, domain.ErrEmptyOrder
	}
	if phone == "" {
		return domain.OrderRequest{}, domain.ErrUnknownCustomer
	}
	req := domain.OrderRequest{
		CustomerID:    customerID,
		CustomerPhone: phone,
		Items:         append([]domain.OrderLineItem(nil), items...),
	}
	if err := validate.Struct(req); err != nil {
		return domain.OrderRequest{}, fmt.Errorf("%w: %v", domain.ErrIncompleteItem, err)
	}
	for i, item := range req.Items {
		if !item.Thickness.IsPositive() {
			return domain.OrderRequest{}, fmt.Errorf("%w: item %d has no thickness", domain.ErrIncompleteItem, i+1)
		}
	}
	return req, nil
}

// FindDuplicate returns the index of an item with the same product and
// size, or -1
func FindDuplicate(items []domain.OrderLineItem, item domain.OrderLineItem) int {
	for i, existing := range items {
		if existing.SameProduct(item) {
			return i
		}
	}
	return -1
}

// Merge adds item's quantity to items[idx] and returns the new slice
func Merge(items []domain.OrderLineItem, idx int, item domain.OrderLineItem) []domain.OrderLineItem {
	merged := append([]domain.OrderLineItem(nil), items...)
	merged[idx].Quantity += item.Quantity
	return merged
}

// TotalQuantity sums the quantities of all lines
func TotalQuantity(items []domain.OrderLineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
