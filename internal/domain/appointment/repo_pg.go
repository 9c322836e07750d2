package appointment

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

const cols = `a.id, a.patient_id, a.date, a.time, a.duration, a.treatment_type,
	a.notes, a.status, a.created_at, p.first_name || ' ' || p.last_name`

// Search reaches patient names through the join; only these columns are
// ever matched.
var searchCols = []string{"a.treatment_type", "a.notes", "p.first_name", "p.last_name"}

var filterCols = map[string]string{
	"date":       "a.date",
	"status":     "a.status",
	"patient_id": "a.patient_id",
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.Date, &a.Time, &a.Duration,
		&a.TreatmentType, &a.Notes, &a.Status, &a.CreatedAt, &a.PatientName)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, date, time, duration, treatment_type, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		a.PatientID, a.Date, a.Time, a.Duration, a.TreatmentType, a.Notes, a.Status,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+` FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET patient_id=$2, date=$3, time=$4, duration=$5,
			treatment_type=$6, notes=$7, status=$8
		WHERE id = $1`,
		a.ID, a.PatientID, a.Date, a.Time, a.Duration, a.TreatmentType, a.Notes, a.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Appointment, int, error) {
	q = q.PruneDates("date")
	b := listquery.New(cols, "appointments a").
		Join("JOIN patients p ON p.id = a.patient_id").
		Search(q.Search, searchCols).
		Filter(q.Filters, filterCols).
		OrderBy("a.date DESC, a.time ASC")

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

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
