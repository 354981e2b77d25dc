package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCodeExists     = errors.New("coupon code already exists")
	ErrInvalidCoupon  = errors.New("invalid coupon")
)

type Repository interface {
	Create(ctx context.Context, c *Coupon) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const couponColumns = `id, code, type, value, active_from, active_to, usage_cap, active, created_at, updated_at`

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *postgresRepository) Create(ctx context.Context, c *Coupon) (uuid.UUID, error) {
	if c.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate coupon ID: %w", err)
		}
		c.ID = genID
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO coupons (id, code, type, value, active_from, active_to, usage_cap, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.Code, string(c.Type), c.Value, c.ActiveFrom, c.ActiveTo, c.UsageCap, c.Active, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrCodeExists
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert coupon: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c.ID, nil
}

func scanCoupon(row pgx.Row, c *Coupon) error {
	return row.Scan(
		&c.ID,
		&c.Code,
		&c.Type,
		&c.Value,
		&c.ActiveFrom,
		&c.ActiveTo,
		&c.UsageCap,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	var c Coupon
	err := scanCoupon(r.db.QueryRow(ctx, query, id), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("repository: failed to select coupon by id %s: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	var c Coupon
	err := scanCoupon(r.db.QueryRow(ctx, query, code), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("repository: failed to select coupon by code %s: %w", code, err)
	}
	return &c, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]Coupon, 0)
	for rows.Next() {
		var c Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("repository: failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating coupons: %w", err)
	}
	return coupons, nil
}

func (r *postgresRepository) Update(ctx context.Context, c *Coupon) error {
	query := `
		UPDATE coupons
		SET code = $1, type = $2, value = $3, active_from = $4, active_to = $5,
			usage_cap = $6, active = $7, updated_at = $8
		WHERE id = $9
	`
	cmdTag, err := r.db.Exec(ctx, query,
		c.Code, string(c.Type), c.Value, c.ActiveFrom, c.ActiveTo, c.UsageCap, c.Active, time.Now().UTC(), c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("repository: failed to update coupon %s: %w", c.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete coupon %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}
