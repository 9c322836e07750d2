package settings

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentflow/dentflow/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx, ok := db.TxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

const cols = `id, clinic_name, address, phone, email, hours, invoice_prefix,
	default_tax_rate, invoice_footer, currency_code, currency_symbol,
	email_appointment_reminders, email_invoice_copy, updated_at`

func scanSettings(row pgx.Row) (*Settings, error) {
	var s Settings
	err := row.Scan(&s.ID, &s.ClinicName, &s.Address, &s.Phone, &s.Email, &s.Hours,
		&s.InvoicePrefix, &s.DefaultTaxRate, &s.InvoiceFooter, &s.CurrencyCode,
		&s.CurrencySymbol, &s.EmailAppointmentReminders, &s.EmailInvoiceCopy,
		&s.UpdatedAt)
	return &s, err
}

func (r *repoPG) Get(ctx context.Context) (*Settings, error) {
	return scanSettings(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM settings ORDER BY id LIMIT 1`))
}

func (r *repoPG) Create(ctx context.Context, s *Settings) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO settings (clinic_name, address, phone, email, hours, invoice_prefix,
			default_tax_rate, invoice_footer, currency_code, currency_symbol,
			email_appointment_reminders, email_invoice_copy)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, updated_at`,
		s.ClinicName, s.Address, s.Phone, s.Email, s.Hours, s.InvoicePrefix,
		s.DefaultTaxRate, s.InvoiceFooter, s.CurrencyCode, s.CurrencySymbol,
		s.EmailAppointmentReminders, s.EmailInvoiceCopy,
	).Scan(&s.ID, &s.UpdatedAt)
}

func (r *repoPG) Update(ctx context.Context, s *Settings) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE settings SET clinic_name=$2, address=$3, phone=$4, email=$5, hours=$6,
			invoice_prefix=$7, default_tax_rate=$8, invoice_footer=$9,
			currency_code=$10, currency_symbol=$11,
			email_appointment_reminders=$12, email_invoice_copy=$13, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.ClinicName, s.Address, s.Phone, s.Email, s.Hours, s.InvoicePrefix,
		s.DefaultTaxRate, s.InvoiceFooter, s.CurrencyCode, s.CurrencySymbol,
		s.EmailAppointmentReminders, s.EmailInvoiceCopy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
