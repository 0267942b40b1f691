package kitchen

import (
	"sort"
	"time"

	"kitchen_console/internal/models"
)

// PendingItem is one row of the flat kitchen view: a single receipt item
// with enough of its receipt attached to be rendered on its own.
type PendingItem struct {
	ID               uint                     `json:"id"`
	ReceiptID        uint                     `json:"receipt_id"`
	ReceiptNumber    string                   `json:"receipt_number"`
	ItemID           uint                     `json:"item_id"`
	ItemName         string                   `json:"item_name"`
	Quantity         int                      `json:"quantity"`
	Status           models.ReceiptItemStatus `json:"status"`
	Notes            *string                  `json:"notes,omitempty"`
	IsDelivery       bool                     `json:"is_delivery"`
	TableNumber      *int                     `json:"table_number,omitempty"`
	PhoneNumber      *string                  `json:"phone_number,omitempty"`
	Location         *string                  `json:"location,omitempty"`
	ReceiptCreatedAt time.Time                `json:"receipt_created_at"`
	CreatedAt        time.Time                `json:"created_at"`
}

// KitchenItem is an item nested under its receipt in the grouped view.
type KitchenItem struct {
	ID        uint                     `json:"id"`
	ItemID    uint                     `json:"item_id"`
	ItemName  string                   `json:"item_name"`
	Quantity  int                      `json:"quantity"`
	Status    models.ReceiptItemStatus `json:"status"`
	Notes     *string                  `json:"notes,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// KitchenReceipt is one row of the grouped kitchen view.
type KitchenReceipt struct {
	ReceiptID     uint          `json:"receipt_id"`
	ReceiptNumber string        `json:"receipt_number"`
	IsDelivery    bool          `json:"is_delivery"`
	TableNumber   *int          `json:"table_number,omitempty"`
	PhoneNumber   *string       `json:"phone_number,omitempty"`
	Location      *string       `json:"location,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Items         []KitchenItem `json:"items"`
}

// AllItemsDone gates the complete-receipt action. It never completes the
// receipt by itself. A receipt without items is not completable.
func (r *KitchenReceipt) AllItemsDone() bool {
	if len(r.Items) == 0 {
		return false
	}
	for _, item := range r.Items {
		if item.Status != models.ItemDone {
			return false
		}
	}
	return true
}

// Status derives the aggregate order status. Receipts in the grouped view
// are pending ones, so there is no completion marker to consider.
func (r *KitchenReceipt) Status() OrderStatus {
	statuses := make([]models.ReceiptItemStatus, 0, len(r.Items))
	for _, item := range r.Items {
		statuses = append(statuses, item.Status)
	}
	return DeriveOrderStatus(nil, statuses)
}

// FlatView projects pending receipts into one row per item, newest item
// first. Completed receipts are skipped.
func FlatView(receipts []models.Receipt) []PendingItem {
	rows := make([]PendingItem, 0)
	for i := range receipts {
		receipt := &receipts[i]
		if receipt.IsCompleted() {
			continue
		}
		for _, item := range receipt.Items {
			rows = append(rows, PendingItem{
				ID:               item.ID,
				ReceiptID:        receipt.ID,
				ReceiptNumber:    receipt.ReceiptNumber,
				ItemID:           item.ItemID,
				ItemName:         item.ItemName,
				Quantity:         item.Quantity,
				Status:           item.Status,
				Notes:            item.Notes,
				IsDelivery:       receipt.IsDelivery,
				TableNumber:      receipt.TableNumber,
				PhoneNumber:      receipt.PhoneNumber,
				Location:         receipt.Location,
				ReceiptCreatedAt: receipt.CreatedAt,
				CreatedAt:        item.CreatedAt,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows
}

// GroupedView projects pending receipts into one row per receipt, keeping
// the order the receipts were given in. Completed receipts are skipped.
func GroupedView(receipts []models.Receipt) []KitchenReceipt {
	rows := make([]KitchenReceipt, 0, len(receipts))
	for i := range receipts {
		receipt := &receipts[i]
		if receipt.IsCompleted() {
			continue
		}
		items := make([]KitchenItem, 0, len(receipt.Items))
		for _, item := range receipt.Items {
			items = append(items, KitchenItem{
				ID:        item.ID,
				ItemID:    item.ItemID,
				ItemName:  item.ItemName,
				Quantity:  item.Quantity,
				Status:    item.Status,
				Notes:     item.Notes,
				CreatedAt: item.CreatedAt,
			})
		}
		rows = append(rows, KitchenReceipt{
			ReceiptID:     receipt.ID,
			ReceiptNumber: receipt.ReceiptNumber,
			IsDelivery:    receipt.IsDelivery,
			TableNumber:   receipt.TableNumber,
			PhoneNumber:   receipt.PhoneNumber,
			Location:      receipt.Location,
			CreatedAt:     receipt.CreatedAt,
			Items:         items,
		})
	}
	return rows
}

// ReceiptsFromFlat regroups flat rows by receipt, newest receipt first and
// items in their original creation order. Receipts without items have no
// flat rows and therefore cannot be recovered.
func ReceiptsFromFlat(rows []PendingItem) []KitchenReceipt {
	index := make(map[uint]int)
	var grouped []KitchenReceipt
	for _, row := range rows {
		position, ok := index[row.ReceiptID]
		if !ok {
			position = len(grouped)
			index[row.ReceiptID] = position
			grouped = append(grouped, KitchenReceipt{
				ReceiptID:     row.ReceiptID,
				ReceiptNumber: row.ReceiptNumber,
				IsDelivery:    row.IsDelivery,
				TableNumber:   row.TableNumber,
				PhoneNumber:   row.PhoneNumber,
				Location:      row.Location,
				CreatedAt:     row.ReceiptCreatedAt,
			})
		}
		grouped[position].Items = append(grouped[position].Items, KitchenItem{
			ID:        row.ID,
			ItemID:    row.ItemID,
			ItemName:  row.ItemName,
			Quantity:  row.Quantity,
			Status:    row.Status,
			Notes:     row.Notes,
			CreatedAt: row.CreatedAt,
		})
	}
	for i := range grouped {
		items := grouped[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			if items[a].CreatedAt.Equal(items[b].CreatedAt) {
				return items[a].ID < items[b].ID
			}
			return items[a].CreatedAt.Before(items[b].CreatedAt)
		})
	}
	sort.SliceStable(grouped, func(a, b int) bool {
		return grouped[a].CreatedAt.After(grouped[b].CreatedAt)
	})
	return grouped
}

// ItemKey identifies a receipt item across both projections.
type ItemKey struct {
	ReceiptID uint
	ID        uint
}

// FlatStatusIndex and GroupedStatusIndex map every item to its status. Two
// projections of one snapshot produce identical indexes.
func FlatStatusIndex(rows []PendingItem) map[ItemKey]models.ReceiptItemStatus {
	index := make(map[ItemKey]models.ReceiptItemStatus, len(rows))
	for _, row := range rows {
		index[ItemKey{ReceiptID: row.ReceiptID, ID: row.ID}] = row.Status
	}
	return index
}

func GroupedStatusIndex(receipts []KitchenReceipt) map[ItemKey]models.ReceiptItemStatus {
	index := make(map[ItemKey]models.ReceiptItemStatus)
	for _, receipt := range receipts {
		for _, item := range receipt.Items {
			index[ItemKey{ReceiptID: receipt.ReceiptID, ID: item.ID}] = item.Status
		}
	}
	return index
}
