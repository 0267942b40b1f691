// Package display is the kitchen screen: it renders the projections kept by
// the refresh controller and routes status and completion actions to the
// backend.
package display

import (
	"context"
	"fmt"
	"log/slog"

	"kitchen_console/internal/kitchen"
	"kitchen_console/internal/models"
	"kitchen_console/internal/refresh"
)

// Backend is the write side of the kitchen API.
type Backend interface {
	UpdateItemStatus(ctx context.Context, receiptID, itemID uint, status models.ReceiptItemStatus) error
	CompleteReceipt(ctx context.Context, receiptID uint) error
}

// Actions turns user intent into backend calls. It never changes displayed
// data; the next refresh shows the result.
type Actions struct {
	backend  Backend
	notifier refresh.Notifier
	logger   *slog.Logger
}

func NewActions(backend Backend, notifier refresh.Notifier, logger *slog.Logger) *Actions {
	if notifier == nil {
		notifier = refresh.NotifierFunc(func(error) {})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Actions{backend: backend, notifier: notifier, logger: logger}
}

// ChangeItemStatus sends one update if current→requested is a legal step.
// A disallowed request is inert: nothing is sent and no error is returned.
// The result reports whether a request was sent.
func (a *Actions) ChangeItemStatus(ctx context.Context, receiptID, itemID uint, current, requested models.ReceiptItemStatus) (bool, error) {
	if !kitchen.CanTransition(current, requested) {
		a.logger.Debug("status change ignored",
			"receipt_id", receiptID, "item_id", itemID, "from", current, "to", requested)
		return false, nil
	}

	if err := a.backend.UpdateItemStatus(ctx, receiptID, itemID, requested); err != nil {
		err = fmt.Errorf("update item %d to %s: %w", itemID, requested, err)
		a.logger.Error("status change failed", "receipt_id", receiptID, "item_id", itemID, "error", err)
		a.notifier.NotifyError(err)
		return true, err
	}

	a.logger.Info("status changed",
		"receipt_id", receiptID, "item_id", itemID, "from", current, "to", requested)
	return true, nil
}

// AdvanceItem moves an item one step forward. Done items are inert.
func (a *Actions) AdvanceItem(ctx context.Context, receiptID, itemID uint, current models.ReceiptItemStatus) (bool, error) {
	next, ok := kitchen.Next(current)
	if !ok {
		return false, nil
	}
	return a.ChangeItemStatus(ctx, receiptID, itemID, current, next)
}

// CompleteReceipt asks the backend to complete receipt, but only when every
// item on it is done. The backend still has the final say.
func (a *Actions) CompleteReceipt(ctx context.Context, receipt kitchen.KitchenReceipt) (bool, error) {
	if !receipt.AllItemsDone() {
		return false, nil
	}

	if err := a.backend.CompleteReceipt(ctx, receipt.ReceiptID); err != nil {
		err = fmt.Errorf("complete receipt %s: %w", receipt.ReceiptNumber, err)
		a.logger.Error("receipt completion failed", "receipt_id", receipt.ReceiptID, "error", err)
		a.notifier.NotifyError(err)
		return true, err
	}

	a.logger.Info("receipt completed", "receipt_id", receipt.ReceiptID)
	return true, nil
}
