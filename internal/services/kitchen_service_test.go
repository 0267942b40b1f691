package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"kitchen_console/internal/kitchen"
	"kitchen_console/internal/models"
	"kitchen_console/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryReceiptRepo struct {
	receipts map[uint]*models.Receipt
	nextID   uint

	getPendingCalls int
	staleNextUpdate bool
	failGetPending  error
	// beforeComplete runs inside MarkCompleted ahead of its checks, standing
	// in for a write from another device.
	beforeComplete func(receipt *models.Receipt)
}

func newMemoryReceiptRepo(receipts ...models.Receipt) *memoryReceiptRepo {
	repo := &memoryReceiptRepo{receipts: make(map[uint]*models.Receipt), nextID: 1000}
	for i := range receipts {
		receipt := receipts[i]
		repo.receipts[receipt.ID] = &receipt
	}
	return repo
}

func clone(receipt *models.Receipt) *models.Receipt {
	copied := *receipt
	copied.Items = append([]models.ReceiptItem(nil), receipt.Items...)
	return &copied
}

func (r *memoryReceiptRepo) Create(ctx context.Context, receipt *models.Receipt) error {
	r.nextID++
	receipt.ID = r.nextID
	r.receipts[receipt.ID] = clone(receipt)
	return nil
}

func (r *memoryReceiptRepo) GetByID(ctx context.Context, id uint) (*models.Receipt, error) {
	receipt, ok := r.receipts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(receipt), nil
}

func (r *memoryReceiptRepo) GetPending(ctx context.Context) ([]models.Receipt, error) {
	r.getPendingCalls++
	if r.failGetPending != nil {
		return nil, r.failGetPending
	}
	var pending []models.Receipt
	for _, receipt := range r.receipts {
		if !receipt.IsCompleted() {
			pending = append(pending, *clone(receipt))
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.After(pending[j].CreatedAt) })
	return pending, nil
}

func (r *memoryReceiptRepo) UpdateItemStatus(ctx context.Context, receiptID, itemID uint, from, to models.ReceiptItemStatus) error {
	if r.staleNextUpdate {
		r.staleNextUpdate = false
		return repository.ErrStale
	}
	receipt := r.receipts[receiptID]
	for i := range receipt.Items {
		if receipt.Items[i].ID == itemID && receipt.Items[i].Status == from {
			receipt.Items[i].Status = to
			return nil
		}
	}
	return repository.ErrStale
}

func (r *memoryReceiptRepo) MarkCompleted(ctx context.Context, receiptID uint, completedAt time.Time) error {
	receipt := r.receipts[receiptID]
	if r.beforeComplete != nil {
		r.beforeComplete(receipt)
	}
	if receipt.CompletedAt != nil {
		return repository.ErrStale
	}
	for _, item := range receipt.Items {
		if item.Status != models.ItemDone {
			return repository.ErrStale
		}
	}
	receipt.CompletedAt = &completedAt
	return nil
}

type memoryCache struct {
	values  map[string][]byte
	deletes int
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	c.deletes++
	return nil
}

var opened = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

func sampleReceipts() []models.Receipt {
	table := 7
	phone := "555-0101"
	location := "12 Harbor Road"
	return []models.Receipt{
		{
			ID:            1,
			ReceiptNumber: "R-0001",
			TableNumber:   &table,
			CreatedAt:     opened,
			Items: []models.ReceiptItem{
				{ID: 11, ReceiptID: 1, ItemName: "risotto", Quantity: 1, Status: models.ItemPending, CreatedAt: opened},
				{ID: 12, ReceiptID: 1, ItemName: "tiramisu", Quantity: 2, Status: models.ItemReady, CreatedAt: opened.Add(time.Second)},
			},
		},
		{
			ID:            2,
			ReceiptNumber: "R-0002",
			IsDelivery:    true,
			PhoneNumber:   &phone,
			Location:      &location,
			CreatedAt:     opened.Add(5 * time.Minute),
			Items: []models.ReceiptItem{
				{ID: 21, ReceiptID: 2, ItemName: "pizza", Quantity: 1, Status: models.ItemDone, CreatedAt: opened.Add(5 * time.Minute)},
				{ID: 22, ReceiptID: 2, ItemName: "cola", Quantity: 3, Status: models.ItemDone, CreatedAt: opened.Add(5 * time.Minute)},
			},
		},
	}
}

func newTestService(repo repository.ReceiptRepository, cache Cache) *kitchenService {
	service := NewKitchenService(repo, cache, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))).(*kitchenService)
	service.now = func() time.Time { return opened.Add(time.Hour) }
	return service
}

func TestProjectionsComeFromOneSnapshot(t *testing.T) {
	repo := newMemoryReceiptRepo(sampleReceipts()...)
	service := newTestService(repo, &memoryCache{values: map[string][]byte{}})
	ctx := context.Background()

	flat, err := service.GetPendingItems(ctx)
	require.NoError(t, err)
	grouped, err := service.GetReceipts(ctx)
	require.NoError(t, err)

	assert.Len(t, flat, 4)
	assert.Len(t, grouped, 2)
	assert.Equal(t, kitchen.FlatStatusIndex(flat), kitchen.GroupedStatusIndex(grouped))
	assert.Equal(t, 1, repo.getPendingCalls, "second projection should be served from the cached snapshot")
}

func TestUpdateItemStatusEnforcesTransitionRule(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		itemID  uint
		status  models.ReceiptItemStatus
		wantErr error
	}{
		{name: "one step forward", itemID: 11, status: models.ItemPreparing},
		{name: "skip a step", itemID: 11, status: models.ItemReady, wantErr: ErrTransitionNotAllowed},
		{name: "backwards", itemID: 12, status: models.ItemPreparing, wantErr: ErrTransitionNotAllowed},
		{name: "same status", itemID: 12, status: models.ItemReady, wantErr: ErrTransitionNotAllowed},
		{name: "unknown status", itemID: 11, status: "burnt", wantErr: ErrInvalidStatus},
		{name: "unknown item", itemID: 99, status: models.ItemPreparing, wantErr: ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryReceiptRepo(sampleReceipts()...)
			service := newTestService(repo, nil)

			err := service.UpdateItemStatus(ctx, 1, tt.itemID, tt.status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			receipt, _ := repo.GetByID(ctx, 1)
			assert.Equal(t, tt.status, receipt.Items[0].Status)
		})
	}
}

func TestUpdateItemStatusErrors(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryReceiptRepo(sampleReceipts()...)
	service := newTestService(repo, nil)
	assert.ErrorIs(t, service.UpdateItemStatus(ctx, 404, 11, models.ItemPreparing), ErrReceiptNotFound)

	repo.staleNextUpdate = true
	assert.ErrorIs(t, service.UpdateItemStatus(ctx, 1, 11, models.ItemPreparing), ErrConflict)

	require.NoError(t, service.CompleteReceipt(ctx, 2))
	assert.ErrorIs(t, service.UpdateItemStatus(ctx, 2, 21, models.ItemReady), ErrReceiptCompleted)
}

func TestWritesInvalidateSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryReceiptRepo(sampleReceipts()...)
	cache := &memoryCache{values: map[string][]byte{}}
	service := newTestService(repo, cache)

	_, err := service.GetReceipts(ctx)
	require.NoError(t, err)
	require.Contains(t, cache.values, pendingReceiptsKey)

	require.NoError(t, service.UpdateItemStatus(ctx, 1, 11, models.ItemPreparing))
	assert.NotContains(t, cache.values, pendingReceiptsKey)

	grouped, err := service.GetReceipts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.getPendingCalls)
	for _, receipt := range grouped {
		if receipt.ReceiptID == 1 {
			assert.Equal(t, models.ItemPreparing, receipt.Items[0].Status)
		}
	}
}

func TestFailedWriteLeavesSnapshotCached(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryReceiptRepo(sampleReceipts()...)
	cache := &memoryCache{values: map[string][]byte{}}
	service := newTestService(repo, cache)

	_, err := service.GetPendingItems(ctx)
	require.NoError(t, err)

	assert.Error(t, service.UpdateItemStatus(ctx, 1, 11, models.ItemDone))
	assert.Contains(t, cache.values, pendingReceiptsKey)
	assert.Equal(t, 0, cache.deletes)
}

func TestCompleteReceiptRequiresAllItemsDone(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryReceiptRepo(sampleReceipts()...)
	service := newTestService(repo, nil)

	assert.ErrorIs(t, service.CompleteReceipt(ctx, 1), ErrReceiptNotReady)
	assert.Nil(t, repo.receipts[1].CompletedAt)

	require.NoError(t, service.CompleteReceipt(ctx, 2))
	require.NotNil(t, repo.receipts[2].CompletedAt)
	assert.Equal(t, opened.Add(time.Hour), *repo.receipts[2].CompletedAt)

	assert.ErrorIs(t, service.CompleteReceipt(ctx, 2), ErrReceiptCompleted)
	assert.ErrorIs(t, service.CompleteReceipt(ctx, 404), ErrReceiptNotFound)

	flat, err := service.GetPendingItems(ctx)
	require.NoError(t, err)
	for _, row := range flat {
		assert.NotEqual(t, uint(2), row.ReceiptID, "completed receipts drop out of pending views")
	}
}

func TestCompleteReceiptLosesRaceWithItemChange(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryReceiptRepo(sampleReceipts()...)
	repo.beforeComplete = func(receipt *models.Receipt) {
		receipt.Items[1].Status = models.ItemReady
	}
	service := newTestService(repo, nil)

	assert.ErrorIs(t, service.CompleteReceipt(ctx, 2), ErrConflict)
	assert.Nil(t, repo.receipts[2].CompletedAt)
}

func TestCompleteReceiptWithoutItemsIsNotReady(t *testing.T) {
	ctx := context.Background()
	table := 1
	repo := newMemoryReceiptRepo(models.Receipt{ID: 5, ReceiptNumber: "R-0005", TableNumber: &table})
	service := newTestService(repo, nil)

	assert.ErrorIs(t, service.CompleteReceipt(ctx, 5), ErrReceiptNotReady)
}

func TestCreateReceiptDefaultsAndValidates(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryReceiptRepo()
	service := newTestService(repo, nil)

	table := 3
	receipt := &models.Receipt{
		ReceiptNumber: "R-0100",
		TableNumber:   &table,
		Items:         []models.ReceiptItem{{ItemName: "soup", Quantity: 2}},
	}
	require.NoError(t, service.CreateReceipt(ctx, receipt))
	assert.Equal(t, models.ItemPending, repo.receipts[receipt.ID].Items[0].Status)

	bad := &models.Receipt{
		ReceiptNumber: "R-0101",
		TableNumber:   &table,
		Items:         []models.ReceiptItem{{ItemName: "soup", Quantity: 0}},
	}
	assert.Error(t, service.CreateReceipt(ctx, bad))

	delivery := &models.Receipt{ReceiptNumber: "R-0102", IsDelivery: true, TableNumber: &table}
	assert.Error(t, service.CreateReceipt(ctx, delivery))
}

func TestRepositoryFailureIsWrapped(t *testing.T) {
	repo := newMemoryReceiptRepo()
	repo.failGetPending = errors.New("connection refused")
	service := newTestService(repo, nil)

	_, err := service.GetReceipts(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}
