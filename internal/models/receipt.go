package models

import (
	"errors"
	"fmt"
	"time"
)

type Receipt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	ReceiptNumber string        `json:"receipt_number" gorm:"unique;not null"`
	IsDelivery    bool          `json:"is_delivery" gorm:"default:false"`
	TableNumber   *int          `json:"table_number,omitempty"`
	PhoneNumber   *string       `json:"phone_number,omitempty"`
	Location      *string       `json:"location,omitempty"`
	Items         []ReceiptItem `json:"items" gorm:"foreignKey:ReceiptID"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty" gorm:"index"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsDineIn reports whether the receipt is bound to a table.
func (r *Receipt) IsDineIn() bool {
	return !r.IsDelivery
}

// IsCompleted reports whether the receipt has been marked complete. Completed
// receipts are terminal and never show up in pending kitchen views.
func (r *Receipt) IsCompleted() bool {
	return r.CompletedAt != nil
}

// ItemStatuses returns the status of every item in receipt order.
func (r *Receipt) ItemStatuses() []ReceiptItemStatus {
	statuses := make([]ReceiptItemStatus, 0, len(r.Items))
	for _, item := range r.Items {
		statuses = append(statuses, item.Status)
	}
	return statuses
}

// Validate checks the dine-in/delivery shape and every item.
func (r *Receipt) Validate() error {
	if r.ReceiptNumber == "" {
		return errors.New("receipt number is required")
	}
	if r.IsDelivery && r.TableNumber != nil {
		return errors.New("delivery receipt cannot have a table number")
	}
	if !r.IsDelivery && r.TableNumber == nil {
		return errors.New("dine-in receipt requires a table number")
	}
	if !r.IsDelivery && (r.PhoneNumber != nil || r.Location != nil) {
		return errors.New("dine-in receipt cannot have a phone number or location")
	}
	for i := range r.Items {
		if err := r.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
