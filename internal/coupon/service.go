package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateCoupon(ctx context.Context, c *Coupon) (*Coupon, error)
	GetCouponByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	ListCoupons(ctx context.Context) ([]Coupon, error)
	UpdateCoupon(ctx context.Context, c *Coupon) error
	DeleteCoupon(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateCoupon(c *Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	}
	if c.Type != DiscountPercentage && c.Type != DiscountFixed {
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidCoupon, c.Type)
	}
	if c.Value <= 0 {
		return fmt.Errorf("%w: discount value must be positive", ErrInvalidCoupon)
	}
	if c.Type == DiscountPercentage && c.Value > 100 {
		return fmt.Errorf("%w: percentage discount cannot exceed 100", ErrInvalidCoupon)
	}
	if !c.ActiveTo.IsZero() && !c.ActiveFrom.IsZero() && c.ActiveTo.Before(c.ActiveFrom) {
		return fmt.Errorf("%w: validity window ends before it starts", ErrInvalidCoupon)
	}
	if c.UsageCap < 0 {
		return fmt.Errorf("%w: usage cap cannot be negative", ErrInvalidCoupon)
	}
	return nil
}

func (s *service) CreateCoupon(ctx context.Context, c *Coupon) (*Coupon, error) {
	if err := validateCoupon(c); err != nil {
		return nil, err
	}

	c.ID = uuid.Nil
	_, err := s.repo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, ErrCodeExists) {
			return nil, ErrCodeExists
		}
		log.Error().Err(err).Str("code", c.Code).Msg("service: failed to create coupon in repository")
		return nil, fmt.Errorf("service: failed to create coupon: %w", err)
	}

	log.Info().Stringer("coupon_id", c.ID).Str("code", c.Code).Msg("service: coupon created")
	return c, nil
}

func (s *service) GetCouponByID(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, ErrCouponNotFound
		}
		log.Error().Err(err).Stringer("coupon_id", id).Msg("service: failed to fetch coupon by id")
		return nil, fmt.Errorf("service: failed to fetch coupon by id: %w", err)
	}
	return c, nil
}

func (s *service) ListCoupons(ctx context.Context) ([]Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list coupons")
		return nil, fmt.Errorf("service: failed to list coupons: %w", err)
	}
	return coupons, nil
}

func (s *service) UpdateCoupon(ctx context.Context, c *Coupon) error {
	if err := validateCoupon(c); err != nil {
		return err
	}

	err := s.repo.Update(ctx, c)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) || errors.Is(err, ErrCodeExists) {
			return err
		}
		log.Error().Err(err).Stringer("coupon_id", c.ID).Msg("service: failed to update coupon")
		return fmt.Errorf("service: failed to update coupon: %w", err)
	}
	return nil
}

func (s *service) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return ErrCouponNotFound
		}
		log.Error().Err(err).Stringer("coupon_id", id).Msg("service: failed to delete coupon")
		return fmt.Errorf("service: failed to delete coupon: %w", err)
	}
	return nil
}
