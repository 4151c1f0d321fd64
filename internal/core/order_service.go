package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderService manages the order lifecycle and coordinates stock ledger
// mutations at the transitions that need them. Confirmation, shipment, and
// cancellation each run in a single transaction that locks the order row
// first and the affected stock records after it (in ascending record id
// order), so a failure at any point rolls the whole step back: the order
// never advances with a partial reservation, and a shipping record never
// exists without the SHIPPED status.
type OrderService interface {
	// CreateOrder builds a NEW order with no stock effect. Items are optional
	// at creation and may be edited until confirmation.
	CreateOrder(ctx context.Context, companyCode, channelCode, warehouseCode, currency string,
		customer CustomerInfo, items []OrderItemInput, seq SequenceService) (*Order, error)
	AddOrderItem(ctx context.Context, orderID int, input OrderItemInput) (*Order, error)
	RemoveOrderItem(ctx context.Context, orderID, lineNumber int) (*Order, error)

	// MarkPaymentPending transitions NEW -> PAYMENT_PENDING.
	MarkPaymentPending(ctx context.Context, orderID int) (*Order, error)
	// ConfirmOrder reserves stock for every item and moves the order to PAID.
	// Any item failing leaves no reservation behind and the status unchanged.
	ConfirmOrder(ctx context.Context, orderID int, stock StockService) (*Order, error)
	StartPreparing(ctx context.Context, orderID int) (*Order, error)
	MarkReadyToShip(ctx context.Context, orderID int) (*Order, error)
	// ShipOrder converts reservations into deductions, creates the Shipping
	// sub-record, and flips READY_TO_SHIP -> SHIPPED, atomically.
	ShipOrder(ctx context.Context, orderID int, carrier, trackingNumber string, stock StockService) (*Order, error)
	MarkInDelivery(ctx context.Context, orderID int) (*Order, error)
	MarkDelivered(ctx context.Context, orderID int) (*Order, error)
	// CancelOrder releases whatever the order still holds reserved; releasing
	// is computed from the movement trail, so repeated cancels never
	// double-release.
	CancelOrder(ctx context.Context, orderID int, reason string, stock StockService) (*Order, error)

	// Queries.
	GetOrder(ctx context.Context, orderID int) (*Order, error)
	GetOrderByNumber(ctx context.Context, companyCode, orderNumber string) (*Order, error)
	GetOrders(ctx context.Context, companyCode string, status *OrderStatus) ([]Order, error)
}

type orderService struct {
	pool *pgxpool.Pool
}

func NewOrderService(pool *pgxpool.Pool) OrderService {
	return &orderService{pool: pool}
}

// ── Creation and item editing ────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, companyCode, channelCode, warehouseCode, currency string,
	customer CustomerInfo, items []OrderItemInput, seq SequenceService) (*Order, error) {

	if strings.TrimSpace(customer.Name) == "" {
		return nil, fmt.Errorf("customer name must not be blank")
	}
	if strings.TrimSpace(customer.ShippingAddress) == "" {
		return nil, fmt.Errorf("shipping address must not be blank")
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	companyID, err := resolveCompanyID(ctx, tx, companyCode)
	if err != nil {
		return nil, err
	}

	var channelID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM sales_channels WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, channelCode,
	).Scan(&channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "sales channel", Key: channelCode}
		}
		return nil, fmt.Errorf("failed to resolve channel: %w", err)
	}

	var warehouseID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, warehouseCode,
	).Scan(&warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "warehouse", Key: warehouseCode}
		}
		return nil, fmt.Errorf("failed to resolve warehouse: %w", err)
	}

	number, err := seq.NextNumberTx(ctx, tx, companyID, SeqOrder)
	if err != nil {
		return nil, err
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (company_id, channel_id, warehouse_id, order_number, reference_token,
		                    status, customer_name, customer_phone, shipping_address, total_amount, currency)
		VALUES ($1, $2, $3, $4, $5, 'NEW', $6, $7, $8, 0, $9)
		RETURNING id
	`, companyID, channelID, warehouseID, FormatOrderNumber(number), uuid.NewString(),
		customer.Name, customer.Phone, customer.ShippingAddress, currency).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for i, input := range items {
		if err := insertOrderItemTx(ctx, tx, companyID, orderID, i+1, input); err != nil {
			return nil, err
		}
	}
	if err := recomputeOrderTotalTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

// insertOrderItemTx snapshots the product's code, name, and (unless
// overridden) unit price into a new line.
func insertOrderItemTx(ctx context.Context, tx pgx.Tx, companyID, orderID, lineNumber int, input OrderItemInput) error {
	if input.Quantity < 1 {
		return fmt.Errorf("line %d: item quantity must be at least 1, got %d", lineNumber, input.Quantity)
	}

	var prod Product
	err := tx.QueryRow(ctx,
		"SELECT id, code, name, unit_price FROM products WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, input.ProductCode,
	).Scan(&prod.ID, &prod.Code, &prod.Name, &prod.UnitPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Kind: "product", Key: input.ProductCode}
		}
		return fmt.Errorf("line %d: failed to resolve product: %w", lineNumber, err)
	}

	price := prod.UnitPrice
	if input.UnitPrice != nil {
		price = *input.UnitPrice
	}
	if price.IsNegative() {
		return fmt.Errorf("line %d: unit price cannot be negative, got %s", lineNumber, price)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_items (order_id, line_number, product_id, product_code, product_name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, orderID, lineNumber, prod.ID, prod.Code, prod.Name, input.Quantity, price, price.MulQuantity(input.Quantity))
	if err != nil {
		return fmt.Errorf("failed to insert order item %d: %w", lineNumber, err)
	}
	return nil
}

// recomputeOrderTotalTx derives total_amount from the items. The total is
// never written any other way.
func recomputeOrderTotalTx(ctx context.Context, tx pgx.Tx, orderID int) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET total_amount = COALESCE((SELECT SUM(total_price) FROM order_items WHERE order_id = $1), 0)
		WHERE id = $1
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to recompute total for order %d: %w", orderID, err)
	}
	return nil
}

// lockOrderTx locks the order header row and returns its coordination fields.
func lockOrderTx(ctx context.Context, tx pgx.Tx, orderID int) (companyID, channelID, warehouseID int, status OrderStatus, err error) {
	err = tx.QueryRow(ctx,
		"SELECT company_id, channel_id, warehouse_id, status FROM orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&companyID, &channelID, &warehouseID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = &NotFoundError{Kind: "order", Key: fmt.Sprintf("%d", orderID)}
			return
		}
		err = fmt.Errorf("failed to lock order %d: %w", orderID, mapLockError(err))
	}
	return
}

func (s *orderService) AddOrderItem(ctx context.Context, orderID int, input OrderItemInput) (*Order, error) {
	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	companyID, _, _, status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !status.ItemsMutable() {
		return nil, fmt.Errorf("order %d items are frozen in status %s", orderID, status)
	}

	var nextLine int
	if err := tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(line_number), 0) + 1 FROM order_items WHERE order_id = $1", orderID,
	).Scan(&nextLine); err != nil {
		return nil, fmt.Errorf("failed to compute next line number: %w", err)
	}

	if err := insertOrderItemTx(ctx, tx, companyID, orderID, nextLine, input); err != nil {
		return nil, err
	}
	if err := recomputeOrderTotalTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit item addition: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) RemoveOrderItem(ctx context.Context, orderID, lineNumber int) (*Order, error) {
	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	_, _, _, status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !status.ItemsMutable() {
		return nil, fmt.Errorf("order %d items are frozen in status %s", orderID, status)
	}

	tag, err := tx.Exec(ctx,
		"DELETE FROM order_items WHERE order_id = $1 AND line_number = $2",
		orderID, lineNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &NotFoundError{Kind: "order item", Key: fmt.Sprintf("%d/%d", orderID, lineNumber)}
	}

	if err := recomputeOrderTotalTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit item removal: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

// ── Lifecycle transitions ────────────────────────────────────────────────────

// transition applies a plain table-checked status change with no stock effect.
func (s *orderService) transition(ctx context.Context, orderID int, to OrderStatus, stampColumn string) (*Order, error) {
	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	_, _, _, status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(status, to); err != nil {
		return nil, err
	}

	query := "UPDATE orders SET status = $1 WHERE id = $2"
	if stampColumn != "" {
		query = fmt.Sprintf("UPDATE orders SET status = $1, %s = NOW() WHERE id = $2", stampColumn)
	}
	if _, err := tx.Exec(ctx, query, string(to), orderID); err != nil {
		return nil, fmt.Errorf("failed to transition order %d to %s: %w", orderID, to, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) MarkPaymentPending(ctx context.Context, orderID int) (*Order, error) {
	return s.transition(ctx, orderID, StatusPaymentPending, "")
}

func (s *orderService) StartPreparing(ctx context.Context, orderID int) (*Order, error) {
	return s.transition(ctx, orderID, StatusPreparing, "")
}

func (s *orderService) MarkReadyToShip(ctx context.Context, orderID int) (*Order, error) {
	return s.transition(ctx, orderID, StatusReadyToShip, "")
}

func (s *orderService) MarkInDelivery(ctx context.Context, orderID int) (*Order, error) {
	return s.transition(ctx, orderID, StatusInDelivery, "")
}

func (s *orderService) MarkDelivered(ctx context.Context, orderID int) (*Order, error) {
	return s.transition(ctx, orderID, StatusDelivered, "delivered_at")
}

func (s *orderService) ConfirmOrder(ctx context.Context, orderID int, stock StockService) (*Order, error) {
	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	companyID, _, warehouseID, status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	// Confirmation covers the NEW -> PAYMENT_PENDING -> PAID path in one step.
	if status != StatusNew && status != StatusPaymentPending {
		return nil, &IllegalTransitionError{From: status, To: StatusPaid}
	}

	items, err := fetchOrderItemsQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("order %d cannot be confirmed without items", orderID)
	}

	// Reservation happens before the status write; if any item fails, the
	// rollback undoes the reservations made for the earlier items.
	if err := stock.ReserveItemsTx(ctx, tx, companyID, warehouseID, orderID, items); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = 'PAID', paid_at = NOW() WHERE id = $1", orderID,
	); err != nil {
		return nil, fmt.Errorf("failed to confirm order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order confirmation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) ShipOrder(ctx context.Context, orderID int, carrier, trackingNumber string, stock StockService) (*Order, error) {
	if strings.TrimSpace(carrier) == "" {
		return nil, fmt.Errorf("%w: carrier must not be blank", ErrInvalidTracking)
	}
	if strings.TrimSpace(trackingNumber) == "" {
		return nil, fmt.Errorf("%w: tracking number must not be blank", ErrInvalidTracking)
	}

	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	companyID, _, warehouseID, status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(status, StatusShipped); err != nil {
		return nil, err
	}

	items, err := fetchOrderItemsQ(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	// Stock is deducted strictly before the status flip; both land in the
	// same transaction, so a Shipping row without SHIPPED status (or the
	// reverse) is never observable.
	if err := stock.ShipItemsTx(ctx, tx, companyID, warehouseID, orderID, items); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO shippings (order_id, carrier, tracking_number)
		VALUES ($1, $2, $3)
	`, orderID, carrier, trackingNumber); err != nil {
		return nil, fmt.Errorf("failed to create shipping record: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = 'SHIPPED', shipped_at = NOW() WHERE id = $1", orderID,
	); err != nil {
		return nil, fmt.Errorf("failed to ship order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order shipment: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) CancelOrder(ctx context.Context, orderID int, reason string, stock StockService) (*Order, error) {
	tx, err := beginLockingTx(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer rollbackTx(ctx, tx)

	_, _, _, status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(status, StatusCancelled); err != nil {
		return nil, err
	}

	// NEW orders hold nothing; confirmed orders hold their net outstanding
	// reservation. Either way the release pass is a no-op when there is
	// nothing left to release.
	if err := stock.ReleaseOutstandingTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE orders SET status = 'CANCELLED', cancel_reason = $1, cancelled_at = NOW() WHERE id = $2",
		reason, orderID,
	); err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order cancellation: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

const orderSelect = `
	SELECT o.id, o.company_id, o.channel_id, sc.code, o.warehouse_id,
	       o.order_number, o.reference_token::text, o.status,
	       o.customer_name, o.customer_phone, o.shipping_address,
	       o.total_amount, o.currency, o.cancel_reason,
	       o.created_at, o.paid_at, o.shipped_at, o.delivered_at, o.cancelled_at
	FROM orders o
	JOIN sales_channels sc ON sc.id = o.channel_id
`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.CompanyID, &o.ChannelID, &o.ChannelCode, &o.WarehouseID,
		&o.OrderNumber, &o.ReferenceToken, &o.Status,
		&o.CustomerName, &o.CustomerPhone, &o.ShippingAddress,
		&o.TotalAmount, &o.Currency, &o.CancelReason,
		&o.CreatedAt, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt,
	)
}

func (s *orderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	var o Order
	err := scanOrder(s.pool.QueryRow(ctx, orderSelect+" WHERE o.id = $1", orderID), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "order", Key: fmt.Sprintf("%d", orderID)}
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	items, err := fetchOrderItemsQ(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	shipping, err := fetchShippingQ(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	o.Shipping = shipping

	return &o, nil
}

func (s *orderService) GetOrderByNumber(ctx context.Context, companyCode, orderNumber string) (*Order, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	var orderID int
	err = s.pool.QueryRow(ctx,
		"SELECT id FROM orders WHERE company_id = $1 AND order_number = $2",
		companyID, orderNumber,
	).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Kind: "order", Key: orderNumber}
		}
		return nil, fmt.Errorf("failed to look up order by number: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) GetOrders(ctx context.Context, companyCode string, status *OrderStatus) ([]Order, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := orderSelect + " WHERE o.company_id = $1"
	args := []any{companyID}
	if status != nil {
		query += " AND o.status = $2"
		args = append(args, string(*status))
	}
	query += " ORDER BY o.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func fetchOrderItemsQ(ctx context.Context, q pgxRowQuerier, orderID int) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, line_number, product_id, product_code, product_name, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_number
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.LineNumber, &it.ProductID,
			&it.ProductCode, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func fetchShippingQ(ctx context.Context, q pgxQuerier, orderID int) (*Shipping, error) {
	var sh Shipping
	err := q.QueryRow(ctx, `
		SELECT id, order_id, carrier, tracking_number, shipped_at
		FROM shippings
		WHERE order_id = $1
	`, orderID).Scan(&sh.ID, &sh.OrderID, &sh.Carrier, &sh.TrackingNumber, &sh.ShippedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch shipping record: %w", err)
	}
	return &sh, nil
}
