package invoice_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/invoice"
	"invoicing/internal/sequence"
	"invoicing/internal/store"
)

// Example demonstrates creating an invoice and moving it through its lifecycle.
func Example() {
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	// Wire the service over the in-memory store and counter
	svc := invoice.NewService(store.NewMemoryStore(), sequence.NewMemory(),
		invoice.WithClock(func() time.Time { return now }))

	inv, err := svc.Create(ctx, &invoice.Invoice{
		CustomerName:  "Acme GmbH",
		CustomerEmail: "billing@acme.example",
		InvoiceDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TaxRate:       decimal.NewFromInt(10),
		Items: []invoice.Item{
			invoice.NewItem("Widget", 2, decimal.NewFromInt(10)),
			invoice.NewItem("Gadget", 3, decimal.NewFromInt(15)),
		},
	})
	if err != nil {
		log.Fatalf("Failed to create invoice: %v", err)
	}
	fmt.Printf("%s %s subtotal=%s tax=%s total=%s\n",
		inv.InvoiceNumber, inv.Status, inv.Subtotal, inv.TaxAmount, inv.TotalAmount)

	// SENT then PAID; PAID is final
	for _, next := range []invoice.Status{invoice.StatusSent, invoice.StatusPaid} {
		if inv, err = svc.UpdateStatus(ctx, inv.ID, next); err != nil {
			log.Fatalf("Failed to update status: %v", err)
		}
	}
	fmt.Println(inv.Status, inv.Status.IsFinal())

	_, err = svc.UpdateStatus(ctx, inv.ID, invoice.StatusCancelled)
	fmt.Println(err != nil)

	// Output:
	// INV-2025-03-001 DRAFT subtotal=65 tax=6.5 total=71.5
	// PAID true
	// true
}

// ExampleCanTransition shows the status machine table.
func ExampleCanTransition() {
	fmt.Println(invoice.CanTransition(invoice.StatusDraft, invoice.StatusPaid))
	fmt.Println(invoice.CanTransition(invoice.StatusSent, invoice.StatusDraft))
	fmt.Println(invoice.CanTransition(invoice.StatusOverdue, invoice.StatusPaid))
	fmt.Println(invoice.CanTransition(invoice.StatusPaid, invoice.StatusPaid))

	// Output:
	// true
	// false
	// true
	// true
}
