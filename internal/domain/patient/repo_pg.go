package patient

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

const cols = `id, first_name, last_name, date_of_birth, gender, phone, email, address,
	chief_complaint, medical_dental_history, on_examination, diagnosis,
	treatment_plan, treatment_done, recall, created_at`

// searchCols is the whitelist of columns free-text search may touch.
var searchCols = []string{"first_name", "last_name", "email", "phone"}

// filterCols maps filterable request fields to columns.
var filterCols = map[string]string{
	"gender": "gender",
	"recall": "recall",
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.Phone, &p.Email, &p.Address, &p.ChiefComplaint, &p.MedicalDentalHistory,
		&p.OnExamination, &p.Diagnosis, &p.TreatmentPlan, &p.TreatmentDone,
		&p.Recall, &p.CreatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (first_name, last_name, date_of_birth, gender, phone, email,
			address, chief_complaint, medical_dental_history, on_examination,
			diagnosis, treatment_plan, treatment_done, recall)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email,
		p.Address, p.ChiefComplaint, p.MedicalDentalHistory, p.OnExamination,
		p.Diagnosis, p.TreatmentPlan, p.TreatmentDone, p.Recall,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name=$2, last_name=$3, date_of_birth=$4, gender=$5,
			phone=$6, email=$7, address=$8, chief_complaint=$9,
			medical_dental_history=$10, on_examination=$11, diagnosis=$12,
			treatment_plan=$13, treatment_done=$14, recall=$15
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email,
		p.Address, p.ChiefComplaint, p.MedicalDentalHistory, p.OnExamination,
		p.Diagnosis, p.TreatmentPlan, p.TreatmentDone, p.Recall)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Patient, int, error) {
	b := listquery.New(cols, "patients").
		Search(q.Search, searchCols).
		Filter(q.Filters, filterCols).
		OrderBy("last_name, first_name")

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

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) HasDependents(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointments WHERE patient_id = $1)
		    OR EXISTS (SELECT 1 FROM prescriptions WHERE patient_id = $1)
		    OR EXISTS (SELECT 1 FROM invoices WHERE patient_id = $1)`, id).Scan(&exists)
	return exists, err
}
