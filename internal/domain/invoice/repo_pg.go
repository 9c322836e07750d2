package invoice

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentflow/dentflow/internal/platform/db"
	"github.com/dentflow/dentflow/internal/platform/listquery"
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

const cols = `i.id, i.patient_id, i.date, i.due_date, i.items, i.subtotal, i.tax_rate,
	i.tax_amount, i.total_amount, i.paid_amount, i.status, i.notes, i.created_at,
	p.first_name || ' ' || p.last_name`

var searchCols = []string{"i.notes", "p.first_name", "p.last_name"}

var filterCols = map[string]string{
	"date":       "i.date",
	"status":     "i.status",
	"patient_id": "i.patient_id",
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var i Invoice
	err := row.Scan(&i.ID, &i.PatientID, &i.Date, &i.DueDate, &i.Items, &i.Subtotal,
		&i.TaxRate, &i.TaxAmount, &i.TotalAmount, &i.PaidAmount, &i.Status,
		&i.Notes, &i.CreatedAt, &i.PatientName)
	return &i, err
}

func (r *repoPG) Create(ctx context.Context, i *Invoice) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO invoices (patient_id, date, due_date, items, subtotal, tax_rate,
			tax_amount, total_amount, paid_amount, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at`,
		i.PatientID, i.Date, i.DueDate, i.Items, i.Subtotal, i.TaxRate,
		i.TaxAmount, i.TotalAmount, i.PaidAmount, i.Status, i.Notes,
	).Scan(&i.ID, &i.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	return scanInvoice(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+` FROM invoices i
		JOIN patients p ON p.id = i.patient_id
		WHERE i.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, i *Invoice) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoices SET patient_id=$2, date=$3, due_date=$4, items=$5, subtotal=$6,
			tax_rate=$7, tax_amount=$8, total_amount=$9, paid_amount=$10,
			status=$11, notes=$12
		WHERE id = $1`,
		i.ID, i.PatientID, i.Date, i.DueDate, i.Items, i.Subtotal, i.TaxRate,
		i.TaxAmount, i.TotalAmount, i.PaidAmount, i.Status, i.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Invoice, int, error) {
	q = q.PruneDates("date")
	b := listquery.New(cols, "invoices i").
		Join("JOIN patients p ON p.id = i.patient_id").
		Search(q.Search, searchCols).
		Filter(q.Filters, filterCols).
		OrderBy("i.date DESC, i.id DESC")

	countSQL, countArgs := b.CountQuery()
	var total int
	if err := r.conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageSQL, pageArgs := b.Query(limit, offset)
	rows, err := r.conn(ctx).Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, rows.Err()
}
