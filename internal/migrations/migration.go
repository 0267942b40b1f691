package migrations

import (
	"context"
	"fmt"
	"log/slog"

	"kitchen_console/internal/models"
	"kitchen_console/internal/services"

	"gorm.io/gorm"
)

// RunMigrations brings the receipt tables up to date. Existing rows are kept.
func RunMigrations(db *gorm.DB, log *slog.Logger) error {
	log.Info("running database migrations")

	if err := db.AutoMigrate(&models.Receipt{}, &models.ReceiptItem{}); err != nil {
		return fmt.Errorf("failed to migrate receipt tables: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

// SeedDemoData creates a handful of open receipts so a fresh kitchen display
// has something to show. It does nothing when receipts are already open.
func SeedDemoData(ctx context.Context, kitchenService services.KitchenService, log *slog.Logger) error {
	open, err := kitchenService.GetReceipts(ctx)
	if err != nil {
		return fmt.Errorf("failed to check open receipts: %w", err)
	}
	if len(open) > 0 {
		log.Info("open receipts exist, skipping demo data", "count", len(open))
		return nil
	}

	receipts := demoReceipts()
	for i := range receipts {
		receipt := &receipts[i]
		if err := kitchenService.CreateReceipt(ctx, receipt); err != nil {
			return fmt.Errorf("failed to create demo receipt %s: %w", receipt.ReceiptNumber, err)
		}
		log.Info("demo receipt created", "receipt_number", receipt.ReceiptNumber, "items", len(receipt.Items))
	}
	return nil
}

func demoReceipts() []models.Receipt {
	table := func(n int) *int { return &n }
	text := func(s string) *string { return &s }

	return []models.Receipt{
		{
			ReceiptNumber: "R-0001",
			TableNumber:   table(4),
			Items: []models.ReceiptItem{
				{ItemID: 101, ItemName: "Tomato soup", Quantity: 2, Status: models.ItemPreparing},
				{ItemID: 205, ItemName: "Club sandwich", Quantity: 1, Status: models.ItemPending, Notes: text("no mayo")},
			},
		},
		{
			ReceiptNumber: "R-0002",
			TableNumber:   table(9),
			Items: []models.ReceiptItem{
				{ItemID: 310, ItemName: "Margherita pizza", Quantity: 1, Status: models.ItemReady},
				{ItemID: 120, ItemName: "Caesar salad", Quantity: 1, Status: models.ItemDone},
			},
		},
		{
			ReceiptNumber: "R-0003",
			IsDelivery:    true,
			PhoneNumber:   text("555-0142"),
			Location:      text("12 Harbour Road"),
			Items: []models.ReceiptItem{
				{ItemID: 402, ItemName: "Pad thai", Quantity: 2, Status: models.ItemDone},
				{ItemID: 510, ItemName: "Spring rolls", Quantity: 3, Status: models.ItemDone},
			},
		},
	}
}
