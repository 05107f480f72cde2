package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/lib/pq"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

const orderColumns = `id, order_id, sub_total, discount, delivery_charge, total, coupon_code,
	order_status, delivery_address, payment_method, payment_details, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o       models.Order
		address []byte
		details []byte
	)
	err := row.Scan(
		&o.ID,
		&o.OrderID,
		&o.SubTotal,
		&o.Discount,
		&o.DeliveryCharge,
		&o.Total,
		&o.CouponCode,
		&o.OrderStatus,
		&address,
		&o.PaymentMethod,
		&details,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &o.DeliveryAddress); err != nil {
		return nil, errors.Wrap(err, "decode delivery address")
	}
	if len(details) > 0 {
		o.PaymentDetails = json.RawMessage(details)
	}
	return &o, nil
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// Create stores the order, its product snapshots and its first history entry
// in one transaction.
func (r *OrderRepo) Create(ctx context.Context, o *models.Order) error {
	address, err := json.Marshal(o.DeliveryAddress)
	if err != nil {
		return errors.Wrap(err, "encode delivery address")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertOrder := `
		INSERT INTO orders
		(id, order_id, sub_total, discount, delivery_charge, total, coupon_code,
		 order_status, delivery_address, payment_method, payment_details, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`
	_, err = tx.ExecContext(ctx, insertOrder,
		o.ID,
		o.OrderID,
		o.SubTotal,
		o.Discount,
		o.DeliveryCharge,
		o.Total,
		o.CouponCode,
		o.OrderStatus,
		address,
		o.PaymentMethod,
		nullJSON(o.PaymentDetails),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	insertProduct := `
		INSERT INTO order_products (order_id, position, product_id, net_quantity, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, p := range o.Products {
		if _, err := tx.ExecContext(ctx, insertProduct, o.ID, i, p.ProductID, p.NetQuantity, p.Quantity, p.Price); err != nil {
			return errors.Wrap(err, "insert order product")
		}
	}

	insertHistory := `INSERT INTO order_status_history (order_id, status, changed_at) VALUES ($1, $2, $3)`
	for _, h := range o.StatusHistory {
		if _, err := tx.ExecContext(ctx, insertHistory, o.ID, h.Status, h.ChangedAt); err != nil {
			return errors.Wrap(err, "insert status history")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit order")
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	return r.get(ctx, r.db, id)
}

func (r *OrderRepo) get(ctx context.Context, q querier, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}
	if err := loadDetails(ctx, q, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns one page of orders, newest first, with the total match count.
func (r *OrderRepo) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	var total int
	countQ := `SELECT count(*) FROM orders WHERE ($1::text = '' OR order_status = $1)`
	if err := r.db.QueryRowContext(ctx, countQ, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1::text = '' OR order_status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, string(f.Status), f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var page []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan order")
		}
		page = append(page, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate orders")
	}
	if err := loadDetails(ctx, r.db, page); err != nil {
		return nil, 0, err
	}

	orders := make([]models.Order, 0, len(page))
	for _, o := range page {
		orders = append(orders, *o)
	}
	return orders, total, nil
}

// loadDetails fills products and status history for orders with two batched queries.
func loadDetails(ctx context.Context, q querier, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Products = []models.LineItem{}
		o.StatusHistory = []models.StatusEntry{}
	}

	rows, err := q.QueryContext(ctx, `
		SELECT order_id, product_id, net_quantity, quantity, price
		FROM order_products
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "load order products")
	}
	for rows.Next() {
		var (
			orderID string
			li      models.LineItem
		)
		if err := rows.Scan(&orderID, &li.ProductID, &li.NetQuantity, &li.Quantity, &li.Price); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan order product")
		}
		o := byID[orderID]
		o.Products = append(o.Products, li)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate order products")
	}

	rows, err = q.QueryContext(ctx, `
		SELECT order_id, status, changed_at
		FROM order_status_history
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, id`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "load status history")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			h       models.StatusEntry
		)
		if err := rows.Scan(&orderID, &h.Status, &h.ChangedAt); err != nil {
			return errors.Wrap(err, "scan status history")
		}
		o := byID[orderID]
		o.StatusHistory = append(o.StatusHistory, h)
	}
	return rows.Err()
}

// AppendStatus locks the order row, lets check veto the change, then writes
// the new status and its history entry together.
func (r *OrderRepo) AppendStatus(ctx context.Context, id string, entry models.StatusEntry, check func(current models.OrderStatus) error) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current models.OrderStatus
	err = tx.QueryRowContext(ctx, `SELECT order_status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "lock order")
	}
	if err := check(current); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET order_status = $2, updated_at = $3 WHERE id = $1`,
		id, entry.Status, entry.ChangedAt); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO order_status_history (order_id, status, changed_at) VALUES ($1, $2, $3)`,
		id, entry.Status, entry.ChangedAt); err != nil {
		return nil, errors.Wrap(err, "append status history")
	}

	o, err := r.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit status")
	}
	return o, nil
}

func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	return expectOne(res, models.ErrOrderNotFound)
}
