package models

import (
	"errors"
	"fmt"
	"time"
)

type ReceiptItem struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	ReceiptID uint              `json:"receipt_id" gorm:"not null;index"`
	ItemID    uint              `json:"item_id" gorm:"not null"`
	ItemName  string            `json:"item_name" gorm:"not null"`
	Quantity  int               `json:"quantity" gorm:"not null"`
	Status    ReceiptItemStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Notes     *string           `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ReceiptItemStatus represents the preparation stage of a receipt item.
// The declaration order below is the preparation order.
type ReceiptItemStatus string

const (
	ItemPending   ReceiptItemStatus = "pending"
	ItemPreparing ReceiptItemStatus = "preparing"
	ItemReady     ReceiptItemStatus = "ready"
	ItemDone      ReceiptItemStatus = "done"
)

// ReceiptItemStatuses lists every status in preparation order.
var ReceiptItemStatuses = []ReceiptItemStatus{ItemPending, ItemPreparing, ItemReady, ItemDone}

// Index returns the position of the status in preparation order, or -1 for
// an unknown value.
func (s ReceiptItemStatus) Index() int {
	switch s {
	case ItemPending:
		return 0
	case ItemPreparing:
		return 1
	case ItemReady:
		return 2
	case ItemDone:
		return 3
	}
	return -1
}

func (s ReceiptItemStatus) Valid() bool {
	return s.Index() >= 0
}

func (s ReceiptItemStatus) String() string {
	return string(s)
}

// ParseReceiptItemStatus converts a raw value into a known status.
func ParseReceiptItemStatus(raw string) (ReceiptItemStatus, error) {
	status := ReceiptItemStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("unknown receipt item status %q", raw)
	}
	return status, nil
}

// Validate checks the fields a receipt item must carry before it is stored.
func (i *ReceiptItem) Validate() error {
	if i.ItemName == "" {
		return errors.New("item name is required")
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", i.Quantity)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("unknown receipt item status %q", i.Status)
	}
	return nil
}
