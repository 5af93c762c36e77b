package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
)

const uniqueViolation = "23505"

// invoiceRow is the persisted shape of an invoice. Items live in a JSONB column so an
// invoice is read and written as one row.
type invoiceRow struct {
	ID              string                               `gorm:"type:uuid;primaryKey"`
	InvoiceNumber   string                               `gorm:"column:invoice_number;not null;uniqueIndex"`
	CustomerName    string                               `gorm:"column:customer_name;not null"`
	CustomerEmail   string                               `gorm:"column:customer_email;not null;index"`
	CustomerAddress string                               `gorm:"column:customer_address"`
	Items           datatypes.JSONType[[]itemDoc]        `gorm:"column:items;type:jsonb;not null"`
	Subtotal        decimal.Decimal                      `gorm:"column:subtotal;type:numeric;not null"`
	TaxRate         decimal.Decimal                      `gorm:"column:tax_rate;type:numeric;not null"`
	TaxAmount       decimal.Decimal                      `gorm:"column:tax_amount;type:numeric;not null"`
	TotalAmount     decimal.Decimal                      `gorm:"column:total_amount;type:numeric;not null;index"`
	Status          string                               `gorm:"column:status;not null;index"`
	Notes           string                               `gorm:"column:notes"`
	InvoiceDate     time.Time                            `gorm:"column:invoice_date;not null;index"`
	DueDate         time.Time                            `gorm:"column:due_date;not null;index"`
	CreatedAt       time.Time                            `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time                            `gorm:"column:updated_at;not null"`
}

func (invoiceRow) TableName() string {
	return "invoices"
}

type itemDoc struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

func toRow(inv *invoice.Invoice) invoiceRow {
	items := make([]itemDoc, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, itemDoc{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	return invoiceRow{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerName:    inv.CustomerName,
		CustomerEmail:   inv.CustomerEmail,
		CustomerAddress: inv.CustomerAddress,
		Items:           datatypes.NewJSONType(items),
		Subtotal:        inv.Subtotal,
		TaxRate:         inv.TaxRate,
		TaxAmount:       inv.TaxAmount,
		TotalAmount:     inv.TotalAmount,
		Status:          string(inv.Status),
		Notes:           inv.Notes,
		InvoiceDate:     inv.InvoiceDate,
		DueDate:         inv.DueDate,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func (r invoiceRow) toInvoice() invoice.Invoice {
	docs := r.Items.Data()
	items := make([]invoice.Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, invoice.Item{
			Description: d.Description,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Amount:      d.Amount,
		})
	}
	return invoice.Invoice{
		ID:              r.ID,
		InvoiceNumber:   r.InvoiceNumber,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerAddress: r.CustomerAddress,
		Items:           items,
		Subtotal:        r.Subtotal,
		TaxRate:         r.TaxRate,
		TaxAmount:       r.TaxAmount,
		TotalAmount:     r.TotalAmount,
		Status:          invoice.Status(r.Status),
		Notes:           r.Notes,
		InvoiceDate:     r.InvoiceDate,
		DueDate:         r.DueDate,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// PostgresStore persists invoices in PostgreSQL through gorm on the lib/pq driver.
type PostgresStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// PostgresConfig holds connection settings.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	AutoMigrate  bool
}

// NewPostgresStore opens the database and optionally creates the invoice table.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	const op = "NewPostgresStore"

	log := logger.WithComponent("postgres-store")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.DSN,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to Postgres: %w", op, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to access connection pool: %w", op, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to ping Postgres: %w", op, err)
	}

	if cfg.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(&invoiceRow{}); err != nil {
			return nil, fmt.Errorf("%s: failed to migrate invoice table: %w", op, err)
		}
		log.Info().Msg("Invoice table migrated")
	}

	return &PostgresStore{db: db, log: log}, nil
}

// NewPostgresStoreFromDB wraps an already opened connection.
func NewPostgresStoreFromDB(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db, log: logger.WithComponent("postgres-store")}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	const op = "PostgresStore.Create"

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = now
	}

	row := toRow(inv)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			s.log.Warn().Str("invoice_number", inv.InvoiceNumber).Msg("Unique constraint rejected invoice number")
			return invoice.ErrDuplicateNumber
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, inv *invoice.Invoice) error {
	const op = "PostgresStore.Save"

	row := toRow(inv)
	res := s.db.WithContext(ctx).
		Model(&invoiceRow{}).
		Where("id = ?", inv.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&row)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return invoice.ErrDuplicateNumber
		}
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return invoice.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, invoice.ErrNotFound
	}
	return s.first(ctx, "PostgresStore.Get", "id = ?", id)
}

func (s *PostgresStore) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	return s.first(ctx, "PostgresStore.GetByNumber", "invoice_number = ?", number)
}

func (s *PostgresStore) first(ctx context.Context, op, query string, arg any) (*invoice.Invoice, error) {
	var row invoiceRow
	if err := s.db.WithContext(ctx).Where(query, arg).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	inv := row.toInvoice()
	return &inv, nil
}

func (s *PostgresStore) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&invoiceRow{}).
		Where("invoice_number = ?", number).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("PostgresStore.ExistsByNumber: %w", err)
	}
	return count > 0, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invoice.ErrNotFound
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&invoiceRow{})
	if res.Error != nil {
		return fmt.Errorf("PostgresStore.Delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return invoice.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, c invoice.Criteria) ([]invoice.Invoice, error) {
	var rows []invoiceRow
	if err := s.query(ctx, c).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("PostgresStore.Find: %w", err)
	}
	return fromRows(rows), nil
}

func (s *PostgresStore) FindPage(ctx context.Context, c invoice.Criteria, p invoice.PageRequest) (invoice.Page, error) {
	const op = "PostgresStore.FindPage"

	p = p.Normalize()

	var total int64
	if err := s.query(ctx, c).Count(&total).Error; err != nil {
		return invoice.Page{}, fmt.Errorf("%s: count: %w", op, err)
	}

	var rows []invoiceRow
	if err := s.query(ctx, c).
		Order("created_at ASC, id ASC").
		Offset(p.Offset()).
		Limit(p.Size).
		Find(&rows).Error; err != nil {
		return invoice.Page{}, fmt.Errorf("%s: %w", op, err)
	}
	return invoice.NewPage(fromRows(rows), p, total), nil
}

func (s *PostgresStore) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	if err := s.db.WithContext(ctx).
		Model(&invoiceRow{}).
		Where("invoice_number LIKE ?", escapeLike(prefix)+"%").
		Order("invoice_number ASC").
		Pluck("invoice_number", &numbers).Error; err != nil {
		return nil, fmt.Errorf("PostgresStore.NumbersWithPrefix: %w", err)
	}
	return numbers, nil
}

// query translates criteria into WHERE clauses.
func (s *PostgresStore) query(ctx context.Context, c invoice.Criteria) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&invoiceRow{})
	if c.CustomerName != "" {
		q = q.Where("customer_name ILIKE ?", "%"+escapeLike(c.CustomerName)+"%")
	}
	if c.CustomerEmail != "" {
		q = q.Where("customer_email = ?", c.CustomerEmail)
	}
	if c.Status != nil {
		q = q.Where("status = ?", string(*c.Status))
	}
	if c.InvoiceFrom != nil {
		q = q.Where("invoice_date >= ?", *c.InvoiceFrom)
	}
	if c.InvoiceTo != nil {
		q = q.Where("invoice_date <= ?", *c.InvoiceTo)
	}
	if c.DueFrom != nil {
		q = q.Where("due_date >= ?", *c.DueFrom)
	}
	if c.DueTo != nil {
		q = q.Where("due_date <= ?", *c.DueTo)
	}
	if c.MinAmount != nil {
		q = q.Where("total_amount >= ?", *c.MinAmount)
	}
	if c.MaxAmount != nil {
		q = q.Where("total_amount <= ?", *c.MaxAmount)
	}
	if c.OverdueAt != nil {
		q = q.Where("due_date < ? AND status NOT IN ?", *c.OverdueAt,
			[]string{string(invoice.StatusPaid), string(invoice.StatusCancelled)})
	}
	return q
}

func fromRows(rows []invoiceRow) []invoice.Invoice {
	out := make([]invoice.Invoice, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toInvoice())
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
