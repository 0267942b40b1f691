package kitchen

import (
	"time"

	"kitchen_console/internal/models"
)

// OrderStatus summarizes a receipt's progress. It is computed on read and
// never stored.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDone      OrderStatus = "done"
	OrderCompleted OrderStatus = "completed"
)

// DeriveOrderStatus computes the aggregate status of a receipt. The first
// matching rule wins:
//
//  1. completedAt set      → completed
//  2. no items             → pending
//  3. every item done      → done
//  4. any item ready       → ready
//  5. any item preparing   → preparing
//  6. otherwise            → pending
//
// A single ready item outranks any number of preparing ones so staff see
// that something is waiting to go out.
func DeriveOrderStatus(completedAt *time.Time, statuses []models.ReceiptItemStatus) OrderStatus {
	if completedAt != nil {
		return OrderCompleted
	}
	if len(statuses) == 0 {
		return OrderPending
	}
	if allDone(statuses) {
		return OrderDone
	}
	if anyIs(statuses, models.ItemReady) {
		return OrderReady
	}
	if anyIs(statuses, models.ItemPreparing) {
		return OrderPreparing
	}
	return OrderPending
}

// ReceiptStatus derives the order status of a stored receipt.
func ReceiptStatus(receipt *models.Receipt) OrderStatus {
	return DeriveOrderStatus(receipt.CompletedAt, receipt.ItemStatuses())
}

func allDone(statuses []models.ReceiptItemStatus) bool {
	for _, status := range statuses {
		if status != models.ItemDone {
			return false
		}
	}
	return true
}

func anyIs(statuses []models.ReceiptItemStatus, want models.ReceiptItemStatus) bool {
	for _, status := range statuses {
		if status == want {
			return true
		}
	}
	return false
}
