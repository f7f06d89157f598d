package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arogith/hms/internal/platform/db"
	"github.com/arogith/hms/internal/platform/query"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `patient_id, surname, name, COALESCE(father_name,''), age,
	COALESCE(blood_group,''), COALESCE(gender,''), national_id,
	COALESCE(phone_number,''), COALESCE(address,''), photo, total_visits, created_at`

// uniqueViolation is the PostgreSQL error code for a unique constraint breach.
const uniqueViolation = "23505"

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (
			patient_id, surname, name, father_name, age, blood_group, gender,
			national_id, phone_number, address, photo, total_visits
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.PatientID, p.Surname, p.Name, p.FatherName, p.Age, p.BloodGroup, p.Gender,
		p.NationalID, p.PhoneNumber, p.Address, p.Photo, p.TotalVisits,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateNationalID, p.NationalID)
		}
		return err
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE patient_id = $1`, id))
}

func (r *repoPG) GetByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE national_id = $1`, nationalID))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			surname=$2, name=$3, father_name=$4, age=$5, blood_group=$6, gender=$7,
			national_id=$8, phone_number=$9, address=$10, photo=$11, total_visits=$12
		WHERE patient_id = $1`,
		p.PatientID, p.Surname, p.Name, p.FatherName, p.Age, p.BloodGroup, p.Gender,
		p.NationalID, p.PhoneNumber, p.Address, p.Photo, p.TotalVisits,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateNationalID, p.NationalID)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.PatientID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients ORDER BY patient_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	patients, err := collectPatients(rows)
	return patients, total, err
}

func (r *repoPG) All(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients ORDER BY patient_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPatients(rows)
}

func (r *repoPG) Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	qb := query.New("patients", patientCols)
	qb.Where(fmt.Sprintf("(name ILIKE $%d OR surname ILIKE $%d OR national_id LIKE $%d)",
		qb.Idx(), qb.Idx(), qb.Idx()), "%"+q+"%")
	qb.OrderBy("patient_id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(limit, offset), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	patients, err := collectPatients(rows)
	return patients, total, err
}

func (r *repoPG) LatestVisit(ctx context.Context, patientID string) (*VisitSummary, error) {
	var v VisitSummary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT visit_id, COALESCE(reg_no,''), COALESCE(op_no,''), COALESCE(bp,''),
			COALESCE(weight,''), COALESCE(temperature,''), COALESCE(symptoms,''),
			COALESCE(complaint,''), COALESCE(status,''), visit_date
		FROM visits WHERE patient_id = $1
		ORDER BY visit_date DESC LIMIT 1`, patientID).Scan(
		&v.VisitID, &v.RegNo, &v.OpNo, &v.BP, &v.Weight, &v.Temperature,
		&v.Symptoms, &v.Complaint, &v.Status, &v.VisitDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) IDsVisitedOn(ctx context.Context, day time.Time) ([]string, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT patient_id FROM visits
		WHERE visit_date >= $1 AND visit_date < $2`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.PatientID, &p.Surname, &p.Name, &p.FatherName, &p.Age,
		&p.BloodGroup, &p.Gender, &p.NationalID,
		&p.PhoneNumber, &p.Address, &p.Photo, &p.TotalVisits, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	var patients []*Patient
	for rows.Next() {
		var p Patient
		err := rows.Scan(
			&p.PatientID, &p.Surname, &p.Name, &p.FatherName, &p.Age,
			&p.BloodGroup, &p.Gender, &p.NationalID,
			&p.PhoneNumber, &p.Address, &p.Photo, &p.TotalVisits, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

// allocatorPG draws patient identifiers from the patient_id_seq sequence and
// formats them as zero-padded 3-digit strings. Values past 999 widen
// naturally; the sequence is never reset or recycled.
type allocatorPG struct {
	pool *pgxpool.Pool
}

func NewIDAllocator(pool *pgxpool.Pool) IDAllocator {
	return &allocatorPG{pool: pool}
}

func (a *allocatorPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return a.pool
}

func (a *allocatorPG) Next(ctx context.Context) (string, error) {
	var next int64
	err := a.conn(ctx).QueryRow(ctx, `SELECT NEXTVAL('patient_id_seq')`).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIDAllocation, err)
	}
	return formatPatientID(next), nil
}

// formatPatientID renders a sequence value as a zero-padded 3-digit id.
// Values past 999 keep all their digits, so distinct sequence values always
// map to distinct ids.
func formatPatientID(n int64) string {
	return fmt.Sprintf("%03d", n)
}
