package prescription

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

const cols = `rx.id, rx.patient_id, rx.date, rx.diagnosis, rx.notes, rx.created_at,
	p.first_name || ' ' || p.last_name`

var searchCols = []string{"rx.diagnosis", "rx.notes", "p.first_name", "p.last_name"}

var filterCols = map[string]string{
	"date":       "rx.date",
	"patient_id": "rx.patient_id",
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.Date, &p.Diagnosis, &p.Notes,
		&p.CreatedAt, &p.PatientName)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (patient_id, date, diagnosis, notes)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`,
		p.PatientID, p.Date, p.Diagnosis, p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+` FROM prescriptions rx
		JOIN patients p ON p.id = rx.patient_id
		WHERE rx.id = $1`, id))
	if err != nil {
		return nil, err
	}
	meds, err := r.MedicationsFor(ctx, []int64{p.ID})
	if err != nil {
		return nil, err
	}
	p.Medications = meds[p.ID]
	if p.Medications == nil {
		p.Medications = []*Medication{}
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET patient_id=$2, date=$3, diagnosis=$4, notes=$5
		WHERE id = $1`,
		p.ID, p.PatientID, p.Date, p.Diagnosis, p.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Prescription, int, error) {
	q = q.PruneDates("date")
	b := listquery.New(cols, "prescriptions rx").
		Join("JOIN patients p ON p.id = rx.patient_id").
		Search(q.Search, searchCols).
		Filter(q.Filters, filterCols).
		OrderBy("rx.date DESC, rx.id DESC")

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

	var items []*Prescription
	var ids []int64
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if len(ids) > 0 {
		meds, err := r.MedicationsFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, p := range items {
			p.Medications = meds[p.ID]
			if p.Medications == nil {
				p.Medications = []*Medication{}
			}
		}
	}
	return items, total, nil
}

func (r *repoPG) InsertMedications(ctx context.Context, prescriptionID int64, meds []*Medication) error {
	for _, m := range meds {
		if err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO medications (prescription_id, name, dosage, frequency, duration, instructions)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id`,
			prescriptionID, m.Name, m.Dosage, m.Frequency, m.Duration, m.Instructions,
		).Scan(&m.ID); err != nil {
			return err
		}
		m.PrescriptionID = prescriptionID
	}
	return nil
}

func (r *repoPG) DeleteMedications(ctx context.Context, prescriptionID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medications WHERE prescription_id = $1`, prescriptionID)
	return err
}

func (r *repoPG) MedicationsFor(ctx context.Context, prescriptionIDs []int64) (map[int64][]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, name, dosage, frequency, duration, instructions
		FROM medications WHERE prescription_id = ANY($1) ORDER BY id`, prescriptionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]*Medication)
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.PrescriptionID, &m.Name, &m.Dosage,
			&m.Frequency, &m.Duration, &m.Instructions); err != nil {
			return nil, err
		}
		out[m.PrescriptionID] = append(out[m.PrescriptionID], &m)
	}
	return out, rows.Err()
}
