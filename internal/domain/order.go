package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingAction is what the customer asked for when a duplicate item interrupted them
type PendingAction string

const (
	ActionNone    PendingAction = ""
	ActionAddItem PendingAction = "add_item"
	ActionConfirm PendingAction = "confirm"
)

// OrderLineItem is a completed line of an order
type OrderLineItem struct {
	ProductCode string          `json:"product_code" validate:"required"`
	Height      string          `json:"height" validate:"required,numeric"`
	Width       string          `json:"width" validate:"required,numeric"`
	Thickness   decimal.Decimal `json:"thickness"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
}

// Dimensions formats the item as HxWxT
func (i OrderLineItem) Dimensions() string {
	return i.Height + "x" + i.Width + "x" + i.Thickness.String()
}

// SameProduct reports whether both lines describe the same product and size
func (i OrderLineItem) SameProduct(o OrderLineItem) bool {
	return i.ProductCode == o.ProductCode &&
		i.Height == o.Height &&
		i.Width == o.Width &&
		i.Thickness.Equal(o.Thickness)
}

// PartialOrderItem is a line under construction; zero values mean "not supplied yet"
type PartialOrderItem struct {
	ProductCode string              `json:"product_code,omitempty"`
	Height      string              `json:"height,omitempty"`
	Width       string              `json:"width,omitempty"`
	Thickness   decimal.NullDecimal `json:"thickness"`
	Quantity    int                 `json:"quantity,omitempty"`
}

// HasDimensions reports whether height, width and thickness are all set
func (i *PartialOrderItem) HasDimensions() bool {
	return i.Height != "" && i.Width != "" && i.Thickness.Valid
}

// IsComplete reports whether the item can be promoted to an OrderLineItem
func (i *PartialOrderItem) IsComplete() bool {
	return i.ProductCode != "" && i.HasDimensions() && i.Quantity > 0
}

// ClearDimensions unsets the size fields
func (i *PartialOrderItem) ClearDimensions() {
	i.Height = ""
	i.Width = ""
	i.Thickness = decimal.NullDecimal{}
}

// PartialOrder accumulates line items across chat turns
type PartialOrder struct {
	CustomerPhone string            `json:"-"`
	Items         []OrderLineItem   `json:"items"`
	CurrentItem   *PartialOrderItem `json:"current_item,omitempty"`
	PendingAction PendingAction     `json:"pending_action,omitempty"`
}

// NewPartialOrder starts an order with an empty current item
func NewPartialOrder(phone string) *PartialOrder {
	return &PartialOrder{
		CustomerPhone: phone,
		Items:         []OrderLineItem{},
		CurrentItem:   &PartialOrderItem{},
	}
}

// Clone returns a deep copy
func (o *PartialOrder) Clone() *PartialOrder {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderLineItem{}, o.Items...)
	if o.CurrentItem != nil {
		item := *o.CurrentItem
		c.CurrentItem = &item
	}
	return &c
}

// OrderRequest is handed to the order-creation collaborator
type OrderRequest struct {
	CustomerID    string          `json:"customer_id"`
	CustomerPhone string          `json:"customer_phone" validate:"required"`
	Items         []OrderLineItem `json:"items" validate:"required,min=1,dive"`
}

// OrderLineSummary describes a priced order line
type OrderLineSummary struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Dimensions  string          `json:"dimensions"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderResult is returned by the order-creation collaborator
type OrderResult struct {
	OrderCode   string             `json:"order_code"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Lines       []OrderLineSummary `json:"lines"`
}

// OrderSummary is an existing order as seen by tracking and listing
type OrderSummary struct {
	OrderCode      string             `json:"order_code"`
	OrderDate      time.Time          `json:"order_date"`
	Status         string             `json:"status"`
	DeliveryStatus string             `json:"delivery_status"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	Lines          []OrderLineSummary `json:"lines,omitempty"`
}
