package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EviewNicks/rental-baju-sub002/internal/audit"
	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
	"github.com/EviewNicks/rental-baju-sub002/internal/penalty"
	"github.com/EviewNicks/rental-baju-sub002/internal/repository"
	"github.com/EviewNicks/rental-baju-sub002/internal/validation"
)

var endDate = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func returnEngine(store repository.TransactionStore, sink audit.Sink) *ReturnEngine {
	e := NewReturnEngine(store, sink,
		validation.NewReturnValidator(validation.Config{}),
		penalty.NewCalculator(penalty.Config{
			DamagedLightFeeCents: 10000,
			DamagedHeavyFeeCents: 50000,
			LostFallbackCents:    150000,
		}))
	e.now = func() time.Time { return endDate }
	return e
}

func rentedOutStore() *fakeStore {
	tx := activeTransaction()
	tx.EndDate = endDate
	return newFakeStore(tx,
		[]domain.RentalItem{{
			ID: "item-1", TransactionID: "tx-1", ProductID: "prod-1",
			Quantity: 3, PickedUpQuantity: 3, DailyRateCents: 5000,
		}},
		[]domain.Product{{ID: "prod-1", Code: "PRD1", Name: "Kebaya Merah", AvailableStock: 7, AcquisitionCostCents: 250000}},
	)
}

func TestProcessReturn_OnTimeGoodCondition(t *testing.T) {
	store := rentedOutStore()
	sink := &recordingSink{}
	e := returnEngine(store, sink)

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 3}},
		}},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(0), result.TotalPenaltyCents)

	tx := store.currentTransaction()
	assert.Equal(t, domain.TransactionStatusReturned, tx.Status)
	require.NotNil(t, tx.ReturnedAt)
	assert.Equal(t, endDate, *tx.ReturnedAt)

	item := store.item("item-1")
	assert.Equal(t, domain.ReturnStatusComplete, item.ReturnStatus)
	assert.Equal(t, int64(0), item.PenaltyCents)

	// All three units physically back on the shelf.
	assert.Equal(t, 10, store.product("prod-1").AvailableStock)
	require.Len(t, store.conditionRecords, 1)
	assert.Equal(t, domain.ConditionGood, store.conditionRecords[0].Class)
	assert.Equal(t, []string{audit.EventReturnProcessed}, sink.eventTypes())
}

func TestProcessReturn_LateReturnAccruesPenalty(t *testing.T) {
	store := rentedOutStore()
	e := returnEngine(store, &recordingSink{})

	late := endDate.Add(48 * time.Hour)
	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID:    "tx-1",
		ActualReturnTime: &late,
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 3}},
		}},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(10000), result.TotalPenaltyCents)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 2, result.Items[0].Penalty.LateDays)

	tx := store.currentTransaction()
	assert.Equal(t, int64(10000), tx.AmountDueCents)
	require.NotNil(t, tx.ReturnedAt)
	assert.Equal(t, late, *tx.ReturnedAt)
}

func TestProcessReturn_LostItemNotRestocked(t *testing.T) {
	store := rentedOutStore()
	e := returnEngine(store, &recordingSink{})

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Hilang/tidak dikembalikan", Quantity: 0}},
		}},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	// Replacement basis from the product's acquisition cost, charged once.
	assert.Equal(t, int64(250000), result.TotalPenaltyCents)

	assert.Equal(t, domain.ReturnStatusComplete, store.item("item-1").ReturnStatus)
	// Nothing physically came back, stock stays put.
	assert.Equal(t, 7, store.product("prod-1").AvailableStock)

	require.Len(t, store.conditionRecords, 1)
	rec := store.conditionRecords[0]
	assert.Equal(t, domain.ConditionLost, rec.Class)
	assert.Equal(t, 0, rec.Quantity)
	require.NotNil(t, rec.ReplacementCostCents)
	assert.Equal(t, int64(250000), *rec.ReplacementCostCents)
}

func TestProcessReturn_MixedConditionSplit(t *testing.T) {
	store := rentedOutStore()
	e := returnEngine(store, &recordingSink{})

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID: "item-1",
			Conditions: []domain.ConditionInput{
				{Description: "Baik - tidak ada kerusakan", Quantity: 2},
				{Description: "Rusak kancing lepas", Quantity: 1},
			},
		}},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(10000), result.TotalPenaltyCents)
	assert.Len(t, store.conditionRecords, 2)
	// Both splits came back physically.
	assert.Equal(t, 10, store.product("prod-1").AvailableStock)
	assert.Equal(t, 2, store.item("item-1").ConditionCount)
}

func TestProcessReturn_SecondReturnRejected(t *testing.T) {
	store := rentedOutStore()
	e := returnEngine(store, &recordingSink{})

	req := &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 3}},
		}},
	}

	first, err := e.ProcessReturn(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := e.ProcessReturn(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.True(t, hasCode(second.Findings, domain.CodeAlreadyReturned))

	// No double penalty, no double restock.
	assert.Equal(t, 1, store.commits)
	assert.Equal(t, 10, store.product("prod-1").AvailableStock)
}

func TestProcessReturn_ValidationFailureWritesNothing(t *testing.T) {
	store := rentedOutStore()
	sink := &recordingSink{}
	e := returnEngine(store, sink)

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 4}},
		}},
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, hasCode(result.Findings, domain.CodeExcessTotalQuantity))
	assert.Equal(t, 0, store.commits)
	assert.Equal(t, domain.TransactionStatusActive, store.currentTransaction().Status)
	assert.Empty(t, sink.eventTypes())
}

func TestProcessReturn_CommitFailureLeavesStateUntouched(t *testing.T) {
	// The restock target is missing, so the commit fails after the condition
	// records and item completion were staged. Nothing may stick.
	tx := activeTransaction()
	tx.EndDate = endDate
	store := newFakeStore(tx,
		[]domain.RentalItem{{
			ID: "item-1", TransactionID: "tx-1", ProductID: "prod-missing",
			Quantity: 2, PickedUpQuantity: 2, DailyRateCents: 5000,
		}},
		nil)
	e := returnEngine(store, &recordingSink{})

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 2}},
		}},
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, domain.TransactionStatusActive, store.currentTransaction().Status)
	assert.Equal(t, domain.ReturnStatusNone, store.item("item-1").ReturnStatus)
	assert.Empty(t, store.conditionRecords)
	assert.Equal(t, 0, store.commits)
}

func TestProcessReturn_ConflictDuringCommitBecomesFinding(t *testing.T) {
	store := rentedOutStore()
	store.commitErr = repository.ErrConflict
	e := returnEngine(store, &recordingSink{})

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 3}},
		}},
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, hasCode(result.Findings, domain.CodeConcurrentPickupDetected))
}

func TestProcessReturn_TwoItemsOneInvalidNoPartialCommit(t *testing.T) {
	tx := activeTransaction()
	tx.EndDate = endDate
	store := newFakeStore(tx,
		[]domain.RentalItem{
			{ID: "item-1", TransactionID: "tx-1", ProductID: "prod-1", Quantity: 3, PickedUpQuantity: 3, DailyRateCents: 5000},
			{ID: "item-2", TransactionID: "tx-1", ProductID: "prod-1", Quantity: 2, PickedUpQuantity: 1, DailyRateCents: 5000},
		},
		[]domain.Product{{ID: "prod-1", AvailableStock: 5}})
	e := returnEngine(store, &recordingSink{})

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{
			{ItemID: "item-1", Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 3}}},
			{ItemID: "item-2", Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 2}}},
		},
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, hasCode(result.Findings, domain.CodeExcessTotalQuantity))
	assert.Equal(t, domain.ReturnStatusNone, store.item("item-1").ReturnStatus)
	assert.Equal(t, 5, store.product("prod-1").AvailableStock)
	assert.Equal(t, 0, store.commits)
}

func TestProcessReturn_LostFallbackWhenCostUnknown(t *testing.T) {
	tx := activeTransaction()
	tx.EndDate = endDate
	store := newFakeStore(tx,
		[]domain.RentalItem{{
			ID: "item-1", TransactionID: "tx-1", ProductID: "prod-1",
			Quantity: 1, PickedUpQuantity: 1, DailyRateCents: 5000,
		}},
		[]domain.Product{{ID: "prod-1", AvailableStock: 0, AcquisitionCostCents: 0}})
	e := returnEngine(store, &recordingSink{})

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Hilang/tidak dikembalikan", Quantity: 0}},
		}},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(150000), result.TotalPenaltyCents)
}

func TestProcessReturn_SubsetLeavesTransactionOpen(t *testing.T) {
	tx := activeTransaction()
	tx.EndDate = endDate
	store := newFakeStore(tx,
		[]domain.RentalItem{
			{ID: "item-1", TransactionID: "tx-1", ProductID: "prod-1", Quantity: 3, PickedUpQuantity: 3, DailyRateCents: 5000},
			{ID: "item-2", TransactionID: "tx-1", ProductID: "prod-1", Quantity: 2, PickedUpQuantity: 2, DailyRateCents: 5000},
		},
		[]domain.Product{{ID: "prod-1", AvailableStock: 5}})
	e := returnEngine(store, &recordingSink{})

	late := endDate.Add(24 * time.Hour)
	first, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID:    "tx-1",
		ActualReturnTime: &late,
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 3}},
		}},
	})
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, int64(5000), first.TotalPenaltyCents)

	// One item is still out, so the transaction stays open with the penalty
	// already on the books.
	tx1 := store.currentTransaction()
	assert.Equal(t, domain.TransactionStatusActive, tx1.Status)
	assert.Nil(t, tx1.ReturnedAt)
	assert.Equal(t, int64(5000), tx1.AmountDueCents)
	assert.Equal(t, domain.ReturnStatusComplete, store.item("item-1").ReturnStatus)
	assert.Equal(t, domain.ReturnStatusNone, store.item("item-2").ReturnStatus)
	assert.Equal(t, 8, store.product("prod-1").AvailableStock)

	// Returning the last item closes the transaction.
	second, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID:    "tx-1",
		ActualReturnTime: &late,
		Items: []domain.ReturnItem{{
			ItemID:     "item-2",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 2}},
		}},
	})
	require.NoError(t, err)
	assert.True(t, second.Success)

	tx2 := store.currentTransaction()
	assert.Equal(t, domain.TransactionStatusReturned, tx2.Status)
	require.NotNil(t, tx2.ReturnedAt)
	assert.Equal(t, int64(10000), tx2.AmountDueCents)
	assert.Equal(t, 10, store.product("prod-1").AvailableStock)
}

func TestProcessReturn_AuditFailureDoesNotFailOperation(t *testing.T) {
	store := rentedOutStore()
	sink := &recordingSink{err: errors.New("sink unavailable")}
	e := returnEngine(store, sink)

	result, err := e.ProcessReturn(context.Background(), &domain.ReturnRequest{
		TransactionID: "tx-1",
		Items: []domain.ReturnItem{{
			ItemID:     "item-1",
			Conditions: []domain.ConditionInput{{Description: "Baik - tidak ada kerusakan", Quantity: 3}},
		}},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.TransactionStatusReturned, store.currentTransaction().Status)
}
