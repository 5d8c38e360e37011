package breaker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/repeatguard/internal/domain"
	"github.com/davidbz/repeatguard/internal/mocks"
	"github.com/davidbz/repeatguard/internal/store/breaker"
)

func TestStore_PassesThroughWhileClosed(t *testing.T) {
	inner := mocks.NewMockHistoryStore(t)
	history := []domain.StoredMessage{{ID: "m-1", Role: domain.RoleUser}}
	query := domain.HistoryQuery{DaysBack: 30, Limit: 50, ExcludeJobID: "job-1"}
	inner.EXPECT().FetchMessagesForSimilarity(mock.Anything, "0xabc", query).Return(history, nil).Once()
	inner.EXPECT().FetchRecentMessages(mock.Anything, "0xabc", 30, 100).Return(history, nil).Once()

	store := breaker.NewStore(inner, breaker.DefaultConfig())

	got, err := store.FetchMessagesForSimilarity(context.Background(), "0xabc", query)
	require.NoError(t, err)
	require.Equal(t, history, got)

	got, err = store.FetchRecentMessages(context.Background(), "0xabc", 30, 100)
	require.NoError(t, err)
	require.Equal(t, history, got)

	require.Equal(t, "closed", store.State())
}

func TestStore_OpensAfterConsecutiveFailures(t *testing.T) {
	storeErr := errors.New("connection refused")
	inner := mocks.NewMockHistoryStore(t)
	inner.EXPECT().
		FetchMessagesForSimilarity(mock.Anything, "0xabc", mock.Anything).
		Return(nil, storeErr).
		Times(3)

	store := breaker.NewStore(inner, breaker.Config{FailureThreshold: 3, OpenTimeout: time.Minute})

	for range 3 {
		_, err := store.FetchMessagesForSimilarity(context.Background(), "0xabc", domain.HistoryQuery{})
		require.ErrorIs(t, err, storeErr)
	}
	require.Equal(t, "open", store.State())

	for range 5 {
		_, err := store.FetchMessagesForSimilarity(context.Background(), "0xabc", domain.HistoryQuery{})
		require.Error(t, err)
	}

	inner.AssertNumberOfCalls(t, "FetchMessagesForSimilarity", 3)
}

func TestStore_RetriesAfterOpenTimeout(t *testing.T) {
	inner := mocks.NewMockHistoryStore(t)
	inner.EXPECT().
		FetchMessagesForSimilarity(mock.Anything, "0xabc", mock.Anything).
		Return(nil, errors.New("timeout")).
		Once()
	inner.EXPECT().
		FetchMessagesForSimilarity(mock.Anything, "0xabc", mock.Anything).
		Return([]domain.StoredMessage{}, nil).
		Once()

	store := breaker.NewStore(inner, breaker.Config{FailureThreshold: 1, OpenTimeout: 50 * time.Millisecond})

	_, err := store.FetchMessagesForSimilarity(context.Background(), "0xabc", domain.HistoryQuery{})
	require.Error(t, err)
	require.Equal(t, "open", store.State())

	require.Eventually(t, func() bool {
		_, err := store.FetchMessagesForSimilarity(context.Background(), "0xabc", domain.HistoryQuery{})
		return err == nil
	}, time.Second, 20*time.Millisecond)

	require.Equal(t, "closed", store.State())
}

func TestStore_IgnoresCallerCancellation(t *testing.T) {
	cancelled := fmt.Errorf("querying messages: %w", context.Canceled)
	inner := mocks.NewMockHistoryStore(t)
	inner.EXPECT().
		FetchRecentMessages(mock.Anything, "0xabc", 30, 100).
		Return(nil, cancelled).
		Times(5)

	store := breaker.NewStore(inner, breaker.Config{FailureThreshold: 2, OpenTimeout: time.Minute})

	for range 5 {
		_, err := store.FetchRecentMessages(context.Background(), "0xabc", 30, 100)
		require.ErrorIs(t, err, context.Canceled)
	}

	require.Equal(t, "closed", store.State())
	inner.AssertNumberOfCalls(t, "FetchRecentMessages", 5)
}
