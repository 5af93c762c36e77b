package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"invoicing/internal/logger"
)

// maxNumberAttempts bounds how often Create retries a generated number that lost a
// uniqueness race at the store.
const maxNumberAttempts = 3

// Patch carries the mutable fields of an invoice. Update overwrites all of them;
// Status is applied only when set and only through the status machine.
type Patch struct {
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	Items           []Item
	TaxRate         decimal.Decimal
	Notes           string
	InvoiceDate     time.Time
	DueDate         time.Time
	Status          *Status
}

// SearchParams are the optional filters of Search. Nil or empty fields are
// unconstrained; From and To bound the invoice date.
type SearchParams struct {
	CustomerName string
	Status       *Status
	From         *time.Time
	To           *time.Time
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
}

// Criteria converts the parameters into store criteria.
func (p SearchParams) Criteria() Criteria {
	return Criteria{
		CustomerName: p.CustomerName,
		Status:       p.Status,
		InvoiceFrom:  p.From,
		InvoiceTo:    p.To,
		MinAmount:    p.MinAmount,
		MaxAmount:    p.MaxAmount,
	}
}

// Service orchestrates invoice operations over a Store, enforcing the status machine
// and the amount invariants on every write.
type Service struct {
	store Store
	seq   Sequencer
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for numbering, timestamps and the
// overdue rules.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// NewService creates a Service. seq may be nil, in which case numbers are derived
// from the store scan alone and concurrent creators may collide at the store.
func NewService(store Store, seq Sequencer, opts ...Option) *Service {
	s := &Service{
		store: store,
		seq:   seq,
		now:   time.Now,
		log:   logger.WithComponent("invoice-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.now()
}

// Create validates and persists a new invoice. A missing invoice number is
// generated; a supplied one must not exist yet.
func (s *Service) Create(ctx context.Context, draft *Invoice) (*Invoice, error) {
	const op = "Create"

	if draft == nil {
		verr := &ValidationError{}
		verr.Add("invoice", "Invoice is required")
		return nil, verr
	}

	inv := draft.Clone()
	inv.ID = ""
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	inv.SetItems(inv.Items)

	if err := Validate(inv); err != nil {
		s.log.Warn().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("Rejected invalid invoice")
		return nil, err
	}

	generated := inv.InvoiceNumber == ""
	if !generated {
		exists, err := s.store.ExistsByNumber(ctx, inv.InvoiceNumber)
		if err != nil {
			return nil, wrap(op, err, "")
		}
		if exists {
			return nil, &Error{Op: op, Number: inv.InvoiceNumber, Err: ErrDuplicateNumber}
		}
	}

	now := s.now()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	for attempt := 1; ; attempt++ {
		if generated {
			number, err := s.reserveNumber(ctx)
			if err != nil {
				return nil, wrap(op, err, "")
			}
			inv.InvoiceNumber = number
		}

		err := s.store.Create(ctx, inv)
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicateNumber) {
			if generated && attempt < maxNumberAttempts {
				s.log.Warn().
					Str("invoice_number", inv.InvoiceNumber).
					Int("attempt", attempt).
					Msg("Generated invoice number already taken, retrying")
				continue
			}
			return nil, &Error{Op: op, Number: inv.InvoiceNumber, Err: ErrDuplicateNumber}
		}
		s.log.Error().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("Failed to persist invoice")
		return nil, wrap(op, err, "")
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Str("status", inv.Status.String()).
		Str("total", inv.TotalAmount.StringFixed(2)).
		Msg("Invoice created")

	return inv.Clone(), nil
}

// Get returns the invoice with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	return s.load(ctx, "Get", id)
}

// GetByNumber returns the invoice with the given number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	const op = "GetByNumber"

	inv, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound(op, "", number)
		}
		return nil, wrap(op, err, "")
	}
	return inv, nil
}

// List returns one page of all invoices, oldest first.
func (s *Service) List(ctx context.Context, p PageRequest) (Page, error) {
	return s.Query(ctx, Criteria{}, p)
}

// Query returns one page of the invoices matching c.
func (s *Service) Query(ctx context.Context, c Criteria, p PageRequest) (Page, error) {
	page, err := s.store.FindPage(ctx, c, p.Normalize())
	if err != nil {
		return Page{}, wrap("Query", err, "")
	}
	return page, nil
}

// Overdue returns one page of unsettled invoices whose due date has passed.
func (s *Service) Overdue(ctx context.Context, p PageRequest) (Page, error) {
	now := s.now()
	return s.Query(ctx, Criteria{OverdueAt: &now}, p)
}

// Search returns every invoice matching all supplied filters.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]Invoice, error) {
	invoices, err := s.store.Find(ctx, params.Criteria())
	if err != nil {
		return nil, wrap("Search", err, "")
	}
	return invoices, nil
}

// Update overwrites the mutable fields of a non-final invoice and recalculates.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Invoice, error) {
	const op = "Update"

	existing, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsFinal() {
		s.log.Warn().Str("invoice_id", id).Str("status", existing.Status.String()).Msg("Rejected update of final invoice")
		return nil, invalidState(op, existing)
	}

	updated := existing.Clone()
	updated.CustomerName = patch.CustomerName
	updated.CustomerEmail = patch.CustomerEmail
	updated.CustomerAddress = patch.CustomerAddress
	updated.InvoiceDate = patch.InvoiceDate
	updated.DueDate = patch.DueDate
	updated.Notes = patch.Notes
	updated.TaxRate = patch.TaxRate
	updated.SetItems(patch.Items)

	if patch.Status != nil && *patch.Status != updated.Status {
		if err := s.checkTransition(op, updated, *patch.Status); err != nil {
			return nil, err
		}
		updated.Status = *patch.Status
	}

	if err := Validate(updated); err != nil {
		return nil, err
	}

	return s.save(ctx, op, updated)
}

// UpdateStatus moves an invoice through the status machine. Moving to the current
// status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Invoice, error) {
	const op = "UpdateStatus"

	existing, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		verr := &ValidationError{}
		verr.Add("status", "Status is required")
		return nil, verr
	}
	if existing.Status == status {
		return existing, nil
	}
	if err := s.checkTransition(op, existing, status); err != nil {
		return nil, err
	}

	from := existing.Status
	updated := existing.Clone()
	updated.Status = status
	saved, err := s.save(ctx, op, updated)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", id).
		Str("from", from.String()).
		Str("to", status.String()).
		Msg("Invoice status changed")
	return saved, nil
}

// Delete removes a non-final invoice.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "Delete"

	existing, err := s.load(ctx, op, id)
	if err != nil {
		return err
	}
	if existing.Status.IsFinal() {
		s.log.Warn().Str("invoice_id", id).Str("status", existing.Status.String()).Msg("Rejected delete of final invoice")
		return invalidState(op, existing)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(op, id, "")
		}
		return wrap(op, err, id)
	}

	s.log.Info().Str("invoice_id", id).Str("invoice_number", existing.InvoiceNumber).Msg("Invoice deleted")
	return nil
}

// AddItem appends a line to a non-final invoice.
func (s *Service) AddItem(ctx context.Context, id string, item Item) (*Invoice, error) {
	const op = "AddItem"

	existing, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsFinal() {
		return nil, invalidState(op, existing)
	}

	updated := existing.Clone().AddItem(item)
	if err := Validate(updated); err != nil {
		return nil, err
	}
	return s.save(ctx, op, updated)
}

// RemoveItem removes the first line equal to item from a non-final invoice.
func (s *Service) RemoveItem(ctx context.Context, id string, item Item) (*Invoice, error) {
	const op = "RemoveItem"

	existing, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsFinal() {
		return nil, invalidState(op, existing)
	}

	item = item.Recalculate()
	found := false
	for _, it := range existing.Items {
		if it.Equal(item) {
			found = true
			break
		}
	}
	if !found {
		return nil, &Error{Op: op, ID: id, Number: existing.InvoiceNumber, Details: "no matching item", Err: ErrNotFound}
	}

	updated := existing.Clone().RemoveItem(item)
	if err := Validate(updated); err != nil {
		return nil, err
	}
	return s.save(ctx, op, updated)
}

// GenerateNextInvoiceNumber previews the next number for the current month: the
// highest existing sequence with the month prefix plus one. It reserves nothing.
//
// The preview only scans stored invoices. Create allocates through the Sequencer,
// which never reuses a number it handed out, so after a delete or a failed create
// the number Create assigns can be higher than the preview.
func (s *Service) GenerateNextInvoiceNumber(ctx context.Context) (string, error) {
	prefix := NumberPrefix(s.now())
	highest, err := s.highestSequence(ctx, prefix)
	if err != nil {
		return "", wrap("GenerateNextInvoiceNumber", err, "")
	}
	return FormatNumber(prefix, highest+1), nil
}

// reserveNumber allocates a number through the sequencer, never below the highest
// number already stored for the period.
func (s *Service) reserveNumber(ctx context.Context) (string, error) {
	prefix := NumberPrefix(s.now())
	highest, err := s.highestSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	if s.seq == nil {
		return FormatNumber(prefix, highest+1), nil
	}
	next, err := s.seq.Next(ctx, prefix, highest)
	if err != nil {
		return "", err
	}
	return FormatNumber(prefix, next), nil
}

func (s *Service) highestSequence(ctx context.Context, prefix string) (int, error) {
	numbers, err := s.store.NumbersWithPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	highest, skipped := maxSequence(prefix, numbers)
	for _, n := range skipped {
		s.log.Error().Str("invoice_number", n).Msg("Invoice number has no numeric sequence")
	}
	return highest, nil
}

// checkTransition applies the status machine plus the due-date rule for OVERDUE.
func (s *Service) checkTransition(op string, inv *Invoice, to Status) error {
	if !CanTransition(inv.Status, to) {
		s.log.Warn().
			Str("invoice_id", inv.ID).
			Str("from", inv.Status.String()).
			Str("to", to.String()).
			Msg("Rejected status transition")
		return &Error{Op: op, ID: inv.ID, Number: inv.InvoiceNumber, From: inv.Status, To: to, Err: ErrInvalidTransition}
	}
	if to == StatusOverdue && inv.DueDate.After(s.now()) {
		s.log.Warn().
			Str("invoice_id", inv.ID).
			Time("due_date", inv.DueDate).
			Msg("Rejected OVERDUE before due date")
		return &Error{
			Op:      op,
			ID:      inv.ID,
			Number:  inv.InvoiceNumber,
			From:    inv.Status,
			To:      to,
			Details: "due date is in the future",
			Err:     ErrInvalidTransition,
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, op, id string) (*Invoice, error) {
	inv, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound(op, id, "")
		}
		return nil, wrap(op, err, id)
	}
	return inv, nil
}

func (s *Service) save(ctx context.Context, op string, inv *Invoice) (*Invoice, error) {
	inv.Recalculate()
	inv.UpdatedAt = s.now()
	if err := s.store.Save(ctx, inv); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound(op, inv.ID, "")
		}
		s.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("Failed to save invoice")
		return nil, wrap(op, err, inv.ID)
	}
	s.log.Debug().Str("invoice_id", inv.ID).Str("op", op).Msg("Invoice saved")
	return inv.Clone(), nil
}
