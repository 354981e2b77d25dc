package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// StatusNotifier receives the committed snapshot after a transition.
// Implementations are best-effort: they log their own failures and
// never report them back to the transition path.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, order *Order, oldStatus, newStatus Status)
}

type Service interface {
	CreateOrder(ctx context.Context, orderInput *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]Order, error)
	ListCustomerOrders(ctx context.Context, email string) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, requested Status) (*TransitionResult, error)
}

const notifyTimeout = 15 * time.Second

type service struct {
	orderRepo Repository
	notifier  StatusNotifier
}

func NewService(orderRepo Repository, notifier StatusNotifier) Service {
	return &service{
		orderRepo: orderRepo,
		notifier:  notifier,
	}
}

func (s *service) CreateOrder(ctx context.Context, orderInput *Order) (*Order, error) {
	if len(orderInput.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, errors.New("service: order must contain at least one item")
	}
	if orderInput.Customer.Email == "" {
		return nil, errors.New("service: customer email is required")
	}

	orderInput.ID = uuid.Nil

	totalAmount := 0.0
	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		if item.Quantity <= 0 {
			return nil, fmt.Errorf("service: order item quantity for product %s must be greater than zero", item.ProductID)
		}
		if item.PricePerUnit < 0 {
			return nil, fmt.Errorf("service: order item price per unit for product %s cannot be negative", item.ProductID)
		}
		if item.ProductID == uuid.Nil {
			return nil, errors.New("service: product id in order item cannot be nil")
		}
		if item.Name == "" {
			return nil, fmt.Errorf("service: order item name snapshot for product %s is required", item.ProductID)
		}

		item.ID = uuid.Nil
		item.OrderID = uuid.Nil

		totalAmount += float64(item.Quantity) * item.PricePerUnit
	}

	orderInput.Status = StatusPending
	orderInput.Total = totalAmount
	orderInput.Version = 0

	_, err := s.orderRepo.Create(ctx, orderInput)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", orderInput.ID).Str("customer_email", orderInput.Customer.Email).Msg("service: order created successfully")

	return orderInput, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, filter Filter) ([]Order, error) {
	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, email string) ([]Order, error) {
	orders, err := s.orderRepo.ListByCustomer(ctx, email)
	if err != nil {
		log.Error().Err(err).Str("customer_email", email).Msg("service: failed to fetch customer orders in repository")
		return nil, fmt.Errorf("service: failed to fetch customer orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus validates the requested transition, commits it
// through the repository, and hands the committed snapshot to the
// notifier. The repository re-validates legality at commit time, so a
// stale pre-check here can never overwrite a concurrent transition.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, requested Status) (*TransitionResult, error) {
	currentOrder, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", orderID).Stringer("new_status", requested).Msg("service: order not found, cannot update status")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	from := currentOrder.Status.Canonical()
	to := requested.Canonical()

	if from == to {
		log.Info().Stringer("order_id", orderID).Stringer("status", to).Msg("service: order status is already the same, rejecting no-op transition")
		return nil, ErrNoOpTransition
	}

	if !IsLegalTransition(from, to) {
		log.Warn().
			Stringer("order_id", currentOrder.ID).
			Stringer("current_status", from).
			Stringer("new_status", to).
			Msg("service: invalid status transition attempt")
		return nil, newIllegalTransitionError(from, to)
	}

	committedOrder, err := s.orderRepo.CommitStatus(ctx, orderID, to)
	if err != nil {
		var illegal *IllegalTransitionError
		switch {
		case errors.Is(err, ErrOrderNotFound),
			errors.Is(err, ErrNoOpTransition),
			errors.Is(err, ErrConcurrentModification),
			errors.As(err, &illegal):
			log.Warn().Err(err).Stringer("order_id", orderID).Stringer("new_status", to).Msg("service: status commit rejected")
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", to).Msg("service: failed to commit order status in repository")
		return nil, fmt.Errorf("service: failed to commit order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", from).Stringer("new_status", committedOrder.Status).Msg("service: order status updated successfully")

	// Fire-and-forget: the commit is durable, so a slow or failing
	// notifier must not block or fail this call. The goroutine gets a
	// detached context with its own timeout.
	if s.notifier != nil {
		snapshot := cloneOrder(committedOrder)
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			s.notifier.NotifyStatusChange(notifyCtx, snapshot, from, snapshot.Status)
		}()
	}

	return &TransitionResult{
		Order:     committedOrder,
		OldStatus: from,
		NewStatus: committedOrder.Status,
	}, nil
}
