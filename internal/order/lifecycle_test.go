package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/order"
)

// End-to-end lifecycle tests against the in-memory repository: the
// same CommitStatus contract as Postgres, no database required.

func TestLifecycle_PendingToConfirmed(t *testing.T) {
	repo := order.NewMemoryRepository()
	notifier := newRecordingNotifier()
	svc := order.NewService(repo, notifier)

	created, err := svc.CreateOrder(context.Background(), testOrder(t, ""))
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, created.Status)

	beforeUpdate := created.UpdatedAt
	time.Sleep(5 * time.Millisecond)

	result, err := svc.UpdateOrderStatus(context.Background(), created.ID, order.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, result.OldStatus)
	assert.Equal(t, order.StatusConfirmed, result.NewStatus)
	assert.Equal(t, order.StatusConfirmed, result.Order.Status)
	assert.True(t, result.Order.UpdatedAt.After(beforeUpdate), "updated_at must strictly increase on a committed transition")
	assert.Equal(t, int64(1), result.Order.Version)
	assert.ElementsMatch(t, []order.Status{order.StatusShipping, order.StatusCanceled}, order.AllowedNext(result.Order.Status))

	call := notifier.waitForCall(t)
	assert.Equal(t, order.StatusPending, call.oldStatus)
	assert.Equal(t, order.StatusConfirmed, call.newStatus)

	// confirmed -> completed skips shipping and must be rejected with
	// the reachable set in the error.
	_, err = svc.UpdateOrderStatus(context.Background(), created.ID, order.StatusCompleted)
	require.Error(t, err)
	var illegal *order.IllegalTransitionError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, order.StatusConfirmed, illegal.From)
	assert.Equal(t, order.StatusCompleted, illegal.To)
	assert.ElementsMatch(t, []order.Status{order.StatusShipping, order.StatusCanceled}, illegal.AllowedNext)
}

func TestLifecycle_TerminalStateLocksOrder(t *testing.T) {
	repo := order.NewMemoryRepository()
	svc := order.NewService(repo, newRecordingNotifier())

	input := testOrder(t, "")
	created, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)

	for _, step := range []order.Status{order.StatusProcessing, order.StatusShipping, order.StatusCompleted} {
		_, err = svc.UpdateOrderStatus(context.Background(), created.ID, step)
		require.NoError(t, err, "step to %s", step)
	}

	_, err = svc.UpdateOrderStatus(context.Background(), created.ID, order.StatusPending)
	require.Error(t, err)
	var illegal *order.IllegalTransitionError
	require.True(t, errors.As(err, &illegal))
	assert.Empty(t, illegal.AllowedNext, "terminal status has no reachable set")

	got, err := svc.GetOrderByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, got.Status)
}

func TestLifecycle_CancellationIsAStatusNotADeletion(t *testing.T) {
	repo := order.NewMemoryRepository()
	svc := order.NewService(repo, newRecordingNotifier())

	created, err := svc.CreateOrder(context.Background(), testOrder(t, ""))
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(context.Background(), created.ID, "cancelled")
	require.NoError(t, err)

	got, err := svc.GetOrderByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCanceled, got.Status)
	assert.Len(t, got.Items, 2, "item snapshots survive cancellation")
}

func TestCommitStatus_ConcurrentWritersExactlyOneWins(t *testing.T) {
	repo := order.NewMemoryRepository()

	input := testOrder(t, "")
	input.Status = order.StatusPending
	id, err := repo.Create(context.Background(), input)
	require.NoError(t, err)

	// paid and canceled are both legal from pending, but neither is
	// reachable from the other, so the loser must fail.
	targets := []order.Status{order.StatusPaid, order.StatusCanceled}

	var wg sync.WaitGroup
	errs := make([]error, len(targets))
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target order.Status) {
			defer wg.Done()
			_, errs[i] = repo.CommitStatus(context.Background(), id, target)
		}(i, target)
	}
	wg.Wait()

	successes := 0
	for _, commitErr := range errs {
		if commitErr == nil {
			successes++
			continue
		}
		var illegal *order.IllegalTransitionError
		ok := errors.Is(commitErr, order.ErrConcurrentModification) || errors.As(commitErr, &illegal)
		assert.True(t, ok, "loser must fail with concurrent-modification or re-validated legality, got: %v", commitErr)
	}
	assert.Equal(t, 1, successes, "exactly one concurrent transition may win")

	final, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, targets, final.Status)
	assert.Equal(t, int64(1), final.Version)
}

func TestListByCustomer_RecentActivityFirst(t *testing.T) {
	repo := order.NewMemoryRepository()
	now := time.Now().UTC()

	older := testOrder(t, order.StatusPending)
	older.CreatedAt = now.Add(-2 * time.Hour)
	older.UpdatedAt = now.Add(-1 * time.Hour)
	_, err := repo.Create(context.Background(), older)
	require.NoError(t, err)

	// Created earlier, but transitioned a minute ago: must surface
	// above the untouched one.
	recentlyTouched := testOrder(t, order.StatusConfirmed)
	recentlyTouched.CreatedAt = now.Add(-3 * time.Hour)
	recentlyTouched.UpdatedAt = now.Add(-1 * time.Minute)
	_, err = repo.Create(context.Background(), recentlyTouched)
	require.NoError(t, err)

	orders, err := repo.ListByCustomer(context.Background(), older.Customer.Email)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, recentlyTouched.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}
