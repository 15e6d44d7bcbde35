package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/security"
)

const (
	orderNote  = "Đơn hàng từ Zalo"
	defaultUOM = "Tấm"
)

// ERP enum columns are stored as their ordinal
var (
	orderStatuses   = []string{"Chờ xử lý", "Đang xử lý", "Đã giao", "Đã hủy"}
	deliveryStatuses = []string{"Chưa giao", "Giao một phần", "Đã giao đủ"}
)

// OrderStore implements domain.OrderService against the ERP schema
type OrderStore struct {
	db     *sql.DB
	prefix string
	now    func() time.Time
}

// NewOrderStore creates an order store; codes look like <prefix>yyyyMMdd001
func NewOrderStore(db *sql.DB, prefix string) *OrderStore {
	return &OrderStore{db: db, prefix: prefix, now: time.Now}
}

type product struct {
	id        int64
	name      string
	unitPrice decimal.Decimal
}

// CreateOrder writes a pending sale order with one detail and a line per item
func (s *OrderStore) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var customerID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM customers WHERE phone = ? LIMIT 1`, req.CustomerPhone).Scan(&customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUnknownCustomer
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	now := s.now().UTC()
	code, err := s.nextOrderCode(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sale_orders (order_code, order_date, customer_id, status, delivery_status, note, order_value)
		VALUES (?, ?, ?, 0, 0, ?, 0)`,
		code, now, customerID, orderNote)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read sale order id: %w", err)
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO order_details (order_code, sale_order_id, total_amount) VALUES (?, ?, 0)`,
		code, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order detail: %w", err)
	}
	detailID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read order detail id: %w", err)
	}

	result := &domain.OrderResult{OrderCode: code, TotalAmount: decimal.Zero}
	for _, item := range req.Items {
		p, err := s.findOrCreateProduct(ctx, tx, item)
		if err != nil {
			return nil, err
		}

		lineTotal := p.unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_detail_products (order_detail_id, product_id, quantity, total_amount)
			VALUES (?, ?, ?, ?)`,
			detailID, p.id, item.Quantity, lineTotal); err != nil {
			return nil, fmt.Errorf("failed to insert order line: %w", err)
		}

		result.TotalAmount = result.TotalAmount.Add(lineTotal)
		result.Lines = append(result.Lines, domain.OrderLineSummary{
			ProductCode: item.ProductCode,
			ProductName: p.name,
			Dimensions:  item.Dimensions(),
			Quantity:    item.Quantity,
			UnitPrice:   p.unitPrice,
			TotalPrice:  lineTotal,
		})
	}

	if _, err := tx.ExecContext(ctx, `UPDATE order_details SET total_amount = ? WHERE id = ?`, result.TotalAmount, detailID); err != nil {
		return nil, fmt.Errorf("failed to update order detail total: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sale_orders SET order_value = ? WHERE id = ?`, result.TotalAmount, orderID); err != nil {
		return nil, fmt.Errorf("failed to update order value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	log.Info().
		Str("order_code", code).
		Str("phone", security.MaskPhone(req.CustomerPhone)).
		Int("lines", len(result.Lines)).
		Msg("Order created")

	return result, nil
}

// nextOrderCode locks the day's latest code and returns its successor
func (s *OrderStore) nextOrderCode(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	dayPrefix := s.prefix + now.Format("20060102")

	var last string
	err := tx.QueryRowContext(ctx, `
		SELECT order_code FROM sale_orders
		WHERE order_code LIKE ?
		ORDER BY order_code DESC
		LIMIT 1 FOR UPDATE`, dayPrefix+"%").Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to read last order code: %w", err)
	}

	seq := 1
	if n, err := strconv.Atoi(strings.TrimPrefix(last, dayPrefix)); err == nil {
		seq = n + 1
	}
	return fmt.Sprintf("%s%03d", dayPrefix, seq), nil
}

// findOrCreateProduct resolves the glass structure for the code and the sized product under it
func (s *OrderStore) findOrCreateProduct(ctx context.Context, tx *sql.Tx, item domain.OrderLineItem) (*product, error) {
	var structureID int64
	var structureName, category sql.NullString
	var structurePrice decimal.NullDecimal
	err := tx.QueryRowContext(ctx, `
		SELECT id, product_name, category, unit_price FROM glass_structures WHERE product_code = ? LIMIT 1`,
		item.ProductCode,
	).Scan(&structureID, &structureName, &category, &structurePrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProduct, item.ProductCode)
		}
		return nil, fmt.Errorf("failed to find glass structure: %w", err)
	}

	var p product
	var name sql.NullString
	var price decimal.NullDecimal
	err = tx.QueryRowContext(ctx, `
		SELECT id, product_name, unit_price FROM products
		WHERE glass_structure_id = ? AND height = ? AND width = ? AND thickness = ?
		LIMIT 1`,
		structureID, item.Height, item.Width, item.Thickness,
	).Scan(&p.id, &name, &price)
	switch {
	case err == nil:
		p.name = name.String
		p.unitPrice = price.Decimal
		return &p, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	size := item.Dimensions()
	p.name = structureName.String + " - " + size
	p.unitPrice = structurePrice.Decimal
	res, err := tx.ExecContext(ctx, `
		INSERT INTO products (product_code, product_name, product_type, height, width, thickness, glass_structure_id, unit_price, uom)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ProductCode+"_"+size, p.name, category.String,
		item.Height, item.Width, item.Thickness, structureID, p.unitPrice, defaultUOM)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	if p.id, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read product id: %w", err)
	}
	return &p, nil
}

// ListOrders returns the most recent orders for the phone, newest first
func (s *OrderStore) ListOrders(ctx context.Context, phone string, limit int) ([]domain.OrderSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT so.order_code, so.order_date, so.status, so.delivery_status, COALESCE(so.order_value, 0)
		FROM sale_orders so
		JOIN customers c ON c.id = so.customer_id
		WHERE c.phone = ?
		ORDER BY so.order_date DESC, so.id DESC
		LIMIT ?`, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.OrderSummary
	for rows.Next() {
		o, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// TrackOrder returns one of the customer's orders with its lines
func (s *OrderStore) TrackOrder(ctx context.Context, phone, orderCode string) (*domain.OrderSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT so.order_code, so.order_date, so.status, so.delivery_status, COALESCE(so.order_value, 0)
		FROM sale_orders so
		JOIN customers c ON c.id = so.customer_id
		WHERE c.phone = ? AND so.order_code = ?
		LIMIT 1`, phone, orderCode)
	order, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.product_code, p.product_name, p.height, p.width, p.thickness,
			COALESCE(odp.quantity, 0), COALESCE(p.unit_price, 0), COALESCE(odp.total_amount, 0)
		FROM order_details od
		JOIN order_detail_products odp ON odp.order_detail_id = od.id
		JOIN products p ON p.id = odp.product_id
		WHERE od.order_code = ?
		ORDER BY odp.id`, orderCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLineSummary
		var code, name, height, width sql.NullString
		var thickness decimal.NullDecimal
		if err := rows.Scan(&code, &name, &height, &width, &thickness,
			&line.Quantity, &line.UnitPrice, &line.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		line.ProductCode = code.String
		line.ProductName = name.String
		line.Dimensions = height.String + "x" + width.String + "x" + thickness.Decimal.String()
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order lines: %w", err)
	}
	return order, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (*domain.OrderSummary, error) {
	var o domain.OrderSummary
	var code sql.NullString
	var status, delivery int
	if err := row.Scan(&code, &o.OrderDate, &status, &delivery, &o.TotalAmount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	o.OrderCode = code.String
	o.Status = label(orderStatuses, status)
	o.DeliveryStatus = label(deliveryStatuses, delivery)
	return &o, nil
}

func label(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return strconv.Itoa(i)
	}
	return names[i]
}
