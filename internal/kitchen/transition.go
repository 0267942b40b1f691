// Package kitchen holds the order-item preparation workflow: the item status
// state machine, the derived order status, and the two read projections the
// kitchen display renders.
package kitchen

import "kitchen_console/internal/models"

// CanTransition reports whether an item in status current may be moved to
// requested. Only a single step forward is allowed: pending→preparing,
// preparing→ready, ready→done. Backward moves, skips, re-selecting the
// current status and unknown values are all disallowed.
func CanTransition(current, requested models.ReceiptItemStatus) bool {
	from, to := current.Index(), requested.Index()
	if from < 0 || to < 0 {
		return false
	}
	return to == from+1
}

// Next returns the status that follows current. The second result is false
// for done and for unknown values.
func Next(current models.ReceiptItemStatus) (models.ReceiptItemStatus, bool) {
	from := current.Index()
	if from < 0 || from+1 >= len(models.ReceiptItemStatuses) {
		return "", false
	}
	return models.ReceiptItemStatuses[from+1], true
}

// StatusOption is one of the four statuses offered for an item. Enabled is
// true only for the single legal next step; every other option is inert.
type StatusOption struct {
	Status  models.ReceiptItemStatus
	Current bool
	Enabled bool
}

// StatusOptions lists every status for an item currently in status current.
func StatusOptions(current models.ReceiptItemStatus) []StatusOption {
	options := make([]StatusOption, 0, len(models.ReceiptItemStatuses))
	for _, status := range models.ReceiptItemStatuses {
		options = append(options, StatusOption{
			Status:  status,
			Current: status == current,
			Enabled: CanTransition(current, status),
		})
	}
	return options
}
