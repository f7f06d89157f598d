package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arogith/hms/internal/platform/db"
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

const visitCols = `visit_id, patient_id, COALESCE(doctor_id,''), COALESCE(op_no,''),
	COALESCE(reg_no,''), COALESCE(bp,''), COALESCE(weight,''), COALESCE(temperature,''),
	COALESCE(symptoms,''), COALESCE(complaint,''), COALESCE(status,''),
	COALESCE(prescription,''), COALESCE(notes,''), visit_date`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO visits (
			patient_id, doctor_id, op_no, reg_no, bp, weight, temperature,
			symptoms, complaint, status, prescription, notes, visit_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING visit_id`,
		v.PatientID, v.DoctorID, v.OpNo, v.RegNo, v.BP, v.Weight, v.Temperature,
		v.Symptoms, v.Complaint, v.Status, v.Prescription, v.Notes, v.VisitDate,
	).Scan(&v.VisitID)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visits WHERE visit_id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE visits SET
			doctor_id=$2, op_no=$3, reg_no=$4, bp=$5, weight=$6, temperature=$7,
			symptoms=$8, complaint=$9, status=$10, prescription=$11, notes=$12
		WHERE visit_id = $1`,
		v.VisitID, v.DoctorID, v.OpNo, v.RegNo, v.BP, v.Weight, v.Temperature,
		v.Symptoms, v.Complaint, v.Status, v.Prescription, v.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, v.VisitID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM visits`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visits ORDER BY visit_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	visits, err := collectVisits(rows)
	return visits, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*View, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT v.visit_id, v.patient_id, COALESCE(v.doctor_id,''), COALESCE(v.op_no,''),
			COALESCE(v.reg_no,''), COALESCE(v.bp,''), COALESCE(v.weight,''),
			COALESCE(v.temperature,''), COALESCE(v.symptoms,''), COALESCE(v.complaint,''),
			COALESCE(v.status,''), COALESCE(v.prescription,''), COALESCE(v.notes,''),
			v.visit_date, COALESCE(d.name,'')
		FROM visits v
		LEFT JOIN doctors d ON d.doctor_id = v.doctor_id
		WHERE v.patient_id = $1
		ORDER BY v.visit_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*View
	for rows.Next() {
		var view View
		err := rows.Scan(
			&view.VisitID, &view.PatientID, &view.DoctorID, &view.OpNo,
			&view.RegNo, &view.BP, &view.Weight, &view.Temperature,
			&view.Symptoms, &view.Complaint, &view.Status,
			&view.Prescription, &view.Notes, &view.VisitDate, &view.DoctorName,
		)
		if err != nil {
			return nil, err
		}
		views = append(views, &view)
	}
	return views, rows.Err()
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID string) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visits WHERE doctor_id = $1 ORDER BY visit_date DESC`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisits(rows)
}

func (r *repoPG) ListOnDay(ctx context.Context, day time.Time) ([]*Visit, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visits WHERE visit_date >= $1 AND visit_date < $2 ORDER BY visit_date DESC`,
		start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisits(rows)
}

func (r *repoPG) ListMissingTemperature(ctx context.Context) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visits WHERE temperature IS NULL OR temperature = '' ORDER BY visit_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisits(rows)
}

func (r *repoPG) SetTemperature(ctx context.Context, visitID int64, temperature string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE visits SET temperature = $2 WHERE visit_id = $1`, visitID, temperature)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, visitID)
	}
	return nil
}

func (r *repoPG) PatientExists(ctx context.Context, patientID string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE patient_id = $1)`, patientID).Scan(&exists)
	return exists, err
}

func (r *repoPG) PatientTotalVisits(ctx context.Context, patientID string) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT total_visits FROM patients WHERE patient_id = $1`, patientID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	return total, err
}

// The WHERE guard makes the first-prescription transition idempotent: two
// concurrent saves race to flip 0 to 1 and only one row update wins.
func (r *repoPG) MarkFirstPrescription(ctx context.Context, patientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET total_visits = 1 WHERE patient_id = $1 AND total_visits = 0`, patientID)
	return err
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(
		&v.VisitID, &v.PatientID, &v.DoctorID, &v.OpNo, &v.RegNo,
		&v.BP, &v.Weight, &v.Temperature, &v.Symptoms, &v.Complaint,
		&v.Status, &v.Prescription, &v.Notes, &v.VisitDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVisits(rows pgx.Rows) ([]*Visit, error) {
	var visits []*Visit
	for rows.Next() {
		var v Visit
		err := rows.Scan(
			&v.VisitID, &v.PatientID, &v.DoctorID, &v.OpNo, &v.RegNo,
			&v.BP, &v.Weight, &v.Temperature, &v.Symptoms, &v.Complaint,
			&v.Status, &v.Prescription, &v.Notes, &v.VisitDate,
		)
		if err != nil {
			return nil, err
		}
		visits = append(visits, &v)
	}
	return visits, rows.Err()
}
