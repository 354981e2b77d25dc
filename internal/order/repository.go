package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Filter narrows List results. Zero-valued fields are ignored.
// Pagination is a view-layer concern and is not part of this contract.
type Filter struct {
	Customer string // substring match on customer name or email
	Status   Status
	From     time.Time
	To       time.Time
	MinTotal *float64
	MaxTotal *float64
}

type Repository interface {
	Create(ctx context.Context, order *Order) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter Filter) ([]Order, error)
	// ListByCustomer returns the customer's orders sorted by
	// updated_at desc, created_at desc: a just-transitioned order
	// surfaces above older untouched ones.
	ListByCustomer(ctx context.Context, email string) ([]Order, error)
	// CommitStatus re-reads the order, re-validates the transition
	// against the freshly read status, and writes the new status plus
	// updated_at atomically. Stale-read requests fail, they never
	// silently overwrite.
	CommitStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, customer_name, customer_phone, customer_address, customer_email,
		total, status, payment_method, version, created_at, updated_at`

const itemColumns = `id, order_id, product_id, name, price_per_unit, quantity, image_url`

func (r *postgresRepository) Create(ctx context.Context, orderInput *Order) (orderID uuid.UUID, err error) {
	finalOrderID := orderInput.ID
	if finalOrderID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		finalOrderID = genID
	}
	orderInput.ID = finalOrderID

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id_attempted", finalOrderID).Msg("Panic recovered during Create, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", finalOrderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id_attempted", finalOrderID).Msg("Transaction for Create failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", finalOrderID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", finalOrderID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (id, customer_name, customer_phone, customer_address, customer_email,
			total, status, payment_method, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.Exec(ctx, queryOrder,
		finalOrderID,
		orderInput.Customer.Name,
		orderInput.Customer.Phone,
		orderInput.Customer.Address,
		orderInput.Customer.Email,
		orderInput.Total,
		string(orderInput.Status),
		string(orderInput.PaymentMethod),
		orderInput.Version,
		now,
		now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}
	orderInput.CreatedAt = now
	orderInput.UpdatedAt = now

	for i := range orderInput.Items {
		itemInput := &orderInput.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
		}
		itemInput.ID = itemID
		itemInput.OrderID = finalOrderID

		queryItem := `
			INSERT INTO order_items (id, order_id, product_id, name, price_per_unit, quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err = tx.Exec(ctx, queryItem,
			itemInput.ID,
			finalOrderID,
			itemInput.ProductID,
			itemInput.Name,
			itemInput.PricePerUnit,
			itemInput.Quantity,
			itemInput.ImageURL,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to insert order item for order %s: %w", finalOrderID, err)
		}
	}
	return finalOrderID, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanOrder(row pgx.Row, order *Order) error {
	return row.Scan(
		&order.ID,
		&order.Customer.Name,
		&order.Customer.Phone,
		&order.Customer.Address,
		&order.Customer.Email,
		&order.Total,
		&order.Status,
		&order.PaymentMethod,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}

func loadItems(ctx context.Context, q querier, orderID uuid.UUID) ([]OrderItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM order_items
		WHERE order_id = $1
	`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order id %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.PricePerUnit,
			&item.Quantity,
			&item.ImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order id %s: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order id %s: %w", orderID, err)
	}
	return items, nil
}

func getByID(ctx context.Context, q querier, orderID uuid.UUID) (*Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`
	var order Order
	err := scanOrder(q.QueryRow(ctx, query, orderID), &order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	items, err := loadItems(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return getByID(ctx, r.db, orderID)
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Order, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Customer != "" {
		p := arg("%" + filter.Customer + "%")
		conds = append(conds, fmt.Sprintf("(customer_name ILIKE %s OR customer_email ILIKE %s)", p, p))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status.Canonical())))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "created_at >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "created_at <= "+arg(filter.To))
	}
	if filter.MinTotal != nil {
		conds = append(conds, "total >= "+arg(*filter.MinTotal))
	}
	if filter.MaxTotal != nil {
		conds = append(conds, "total <= "+arg(*filter.MaxTotal))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC, created_at DESC"

	return r.queryOrders(ctx, query, args...)
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, email string) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_email = $1
		ORDER BY updated_at DESC, created_at DESC
	`
	return r.queryOrders(ctx, query, email)
}

func (r *postgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	orderRows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var order Order
		if err := scanOrder(orderRows, &order); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		order.Items = make([]OrderItem, 0)
		ordersMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}
	if err = orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemsQuery := `
		SELECT ` + itemColumns + `
		FROM order_items
		WHERE order_id = ANY($1)
	`
	itemRows, err := r.db.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.PricePerUnit,
			&item.Quantity,
			&item.ImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if order, ok := ordersMap[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	resultOrders := make([]Order, 0, len(ordersMap))
	for _, id := range orderIDs {
		if order, ok := ordersMap[id]; ok {
			resultOrders = append(resultOrders, *order)
		}
	}
	return resultOrders, nil
}

// CommitStatus is the sole serialization point for status writes.
// Legality is re-validated against the row read under lock, never
// against whatever the caller observed earlier.
func (r *postgresRepository) CommitStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (committed *Order, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback status commit")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit status transaction")
				committed = nil
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	lockQuery := `
		SELECT status, version
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	var (
		current Status
		version int64
	)
	err = tx.QueryRow(ctx, lockQuery, orderID).Scan(&current, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to lock order %s for status commit: %w", orderID, err)
	}

	from := current.Canonical()
	to := newStatus.Canonical()
	if from == to {
		return nil, ErrNoOpTransition
	}
	if !IsLegalTransition(from, to) {
		return nil, newIllegalTransitionError(from, to)
	}

	updateQuery := `
		UPDATE orders
		SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`
	cmdTag, err := tx.Exec(ctx, updateQuery, string(to), time.Now().UTC(), orderID, version)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, ErrConcurrentModification
	}

	order, err := getByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}
