package repository

import (
	"context"
	"errors"
	"time"

	"kitchen_console/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStale means the row no longer holds the value the update was
	// conditioned on, usually because another device changed it first.
	ErrStale = errors.New("record changed concurrently")
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	GetByID(ctx context.Context, id uint) (*models.Receipt, error)
	GetPending(ctx context.Context) ([]models.Receipt, error)
	UpdateItemStatus(ctx context.Context, receiptID, itemID uint, from, to models.ReceiptItemStatus) error
	MarkCompleted(ctx context.Context, receiptID uint, completedAt time.Time) error
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetByID(ctx context.Context, id uint) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&receipt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// GetPending returns every receipt that has not been completed, newest
// first, with items in creation order.
func (r *receiptRepository) GetPending(ctx context.Context) ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := r.db.WithContext(ctx).
		Where("completed_at IS NULL").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Order("created_at DESC, id DESC").
		Find(&receipts).Error
	return receipts, err
}

// UpdateItemStatus moves an item from one status to another only if it is
// still in the from status and its receipt is still open.
func (r *receiptRepository) UpdateItemStatus(ctx context.Context, receiptID, itemID uint, from, to models.ReceiptItemStatus) error {
	openReceipt := r.db.Model(&models.Receipt{}).
		Select("id").
		Where("id = ? AND completed_at IS NULL", receiptID)

	result := r.db.WithContext(ctx).Model(&models.ReceiptItem{}).
		Where("id = ? AND receipt_id = ? AND status = ?", itemID, receiptID, from).
		Where("receipt_id IN (?)", openReceipt).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// MarkCompleted sets completed_at if the receipt is still open and none of
// its items is short of done.
func (r *receiptRepository) MarkCompleted(ctx context.Context, receiptID uint, completedAt time.Time) error {
	unfinished := r.db.Model(&models.ReceiptItem{}).
		Select("1").
		Where("receipt_items.receipt_id = receipts.id AND receipt_items.status <> ?", models.ItemDone)

	result := r.db.WithContext(ctx).Model(&models.Receipt{}).
		Where("id = ? AND completed_at IS NULL", receiptID).
		Where("NOT EXISTS (?)", unfinished).
		Updates(map[string]interface{}{
			"completed_at": completedAt,
			"updated_at":   completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
