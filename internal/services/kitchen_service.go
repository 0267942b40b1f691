package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kitchen_console/internal/kitchen"
	"kitchen_console/internal/models"
	"kitchen_console/internal/repository"
)

var (
	ErrReceiptNotFound      = errors.New("receipt not found")
	ErrItemNotFound         = errors.New("receipt item not found")
	ErrInvalidStatus        = errors.New("invalid receipt item status")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrReceiptNotReady      = errors.New("receipt has items that are not done")
	ErrReceiptCompleted     = errors.New("receipt already completed")
	ErrConflict             = errors.New("receipt changed concurrently")
)

// pendingReceiptsKey caches the pending receipts snapshot both projections
// are built from, so they can never disagree.
const pendingReceiptsKey = "kitchen:pending_receipts"

// Cache stores JSON-encodable values with a TTL.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type KitchenService interface {
	GetPendingItems(ctx context.Context) ([]kitchen.PendingItem, error)
	GetReceipts(ctx context.Context) ([]kitchen.KitchenReceipt, error)
	UpdateItemStatus(ctx context.Context, receiptID, itemID uint, status models.ReceiptItemStatus) error
	CompleteReceipt(ctx context.Context, receiptID uint) error
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
}

type kitchenService struct {
	receiptRepo repository.ReceiptRepository
	cache       Cache
	cacheTTL    time.Duration
	now         func() time.Time
	log         *slog.Logger
}

// NewKitchenService builds the service. cache may be nil, in which case
// every read goes to the repository.
func NewKitchenService(receiptRepo repository.ReceiptRepository, cache Cache, cacheTTL time.Duration, log *slog.Logger) KitchenService {
	return &kitchenService{
		receiptRepo: receiptRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		now:         time.Now,
		log:         log,
	}
}

func (s *kitchenService) GetPendingItems(ctx context.Context) ([]kitchen.PendingItem, error) {
	receipts, err := s.pendingReceipts(ctx)
	if err != nil {
		return nil, err
	}
	return kitchen.FlatView(receipts), nil
}

func (s *kitchenService) GetReceipts(ctx context.Context) ([]kitchen.KitchenReceipt, error) {
	receipts, err := s.pendingReceipts(ctx)
	if err != nil {
		return nil, err
	}
	return kitchen.GroupedView(receipts), nil
}

func (s *kitchenService) UpdateItemStatus(ctx context.Context, receiptID, itemID uint, status models.ReceiptItemStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	receipt, err := s.getReceipt(ctx, receiptID)
	if err != nil {
		return err
	}
	if receipt.IsCompleted() {
		return ErrReceiptCompleted
	}

	var item *models.ReceiptItem
	for i := range receipt.Items {
		if receipt.Items[i].ID == itemID {
			item = &receipt.Items[i]
			break
		}
	}
	if item == nil {
		return ErrItemNotFound
	}

	if !kitchen.CanTransition(item.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, item.Status, status)
	}

	err = s.receiptRepo.UpdateItemStatus(ctx, receiptID, itemID, item.Status, status)
	if errors.Is(err, repository.ErrStale) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	s.log.Info("item status updated",
		"receipt_id", receiptID, "item_id", itemID, "from", item.Status, "to", status)
	s.invalidate(ctx)
	return nil
}

func (s *kitchenService) CompleteReceipt(ctx context.Context, receiptID uint) error {
	receipt, err := s.getReceipt(ctx, receiptID)
	if err != nil {
		return err
	}
	if receipt.IsCompleted() {
		return ErrReceiptCompleted
	}
	if len(receipt.Items) == 0 || kitchen.ReceiptStatus(receipt) != kitchen.OrderDone {
		return ErrReceiptNotReady
	}

	err = s.receiptRepo.MarkCompleted(ctx, receiptID, s.now())
	if errors.Is(err, repository.ErrStale) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to complete receipt: %w", err)
	}

	s.log.Info("receipt completed", "receipt_id", receiptID, "receipt_number", receipt.ReceiptNumber)
	s.invalidate(ctx)
	return nil
}

func (s *kitchenService) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	for i := range receipt.Items {
		if receipt.Items[i].Status == "" {
			receipt.Items[i].Status = models.ItemPending
		}
	}
	if err := receipt.Validate(); err != nil {
		return err
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *kitchenService) getReceipt(ctx context.Context, receiptID uint) (*models.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// pendingReceipts reads through the cache. Cache failures are logged and
// fall back to the repository.
func (s *kitchenService) pendingReceipts(ctx context.Context) ([]models.Receipt, error) {
	if s.cache != nil {
		var cached []models.Receipt
		hit, err := s.cache.Get(ctx, pendingReceiptsKey, &cached)
		if err != nil {
			s.log.Warn("cache read failed", "key", pendingReceiptsKey, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	receipts, err := s.receiptRepo.GetPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending receipts: %w", err)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, pendingReceiptsKey, receipts, s.cacheTTL); err != nil {
			s.log.Warn("cache write failed", "key", pendingReceiptsKey, "error", err)
		}
	}
	return receipts, nil
}

func (s *kitchenService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, pendingReceiptsKey); err != nil {
		s.log.Warn("cache invalidation failed", "key", pendingReceiptsKey, "error", err)
	}
}
