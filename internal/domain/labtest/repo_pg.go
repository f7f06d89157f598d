package labtest

import (
	"context"
	"errors"
	"fmt"

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

const labTestCols = `test_id, visit_id, COALESCE(patient_id,''), test_name,
	COALESCE(result,''), COALESCE(reference_range,''), COALESCE(status,''),
	test_given_at, result_updated_at`

func (r *repoPG) Insert(ctx context.Context, t *LabTest) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO labtests (
			visit_id, patient_id, test_name, result, reference_range, status,
			test_given_at, result_updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING test_id`,
		t.VisitID, t.PatientID, t.TestName, t.Result, t.ReferenceRange, t.Status,
		t.TestGivenAt, t.ResultUpdatedAt,
	).Scan(&t.TestID)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*LabTest, error) {
	return scanLabTest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+labTestCols+` FROM labtests WHERE test_id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *LabTest) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE labtests SET
			test_name=$2, result=$3, reference_range=$4, status=$5, result_updated_at=$6
		WHERE test_id = $1`,
		t.TestID, t.TestName, t.Result, t.ReferenceRange, t.Status, t.ResultUpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, t.TestID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM labtests WHERE test_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+labTestCols+` FROM labtests ORDER BY test_id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	tests, err := collectLabTests(rows)
	return tests, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+labTestCols+` FROM labtests WHERE patient_id = $1 ORDER BY test_given_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLabTests(rows)
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM labtests`).Scan(&total)
	return total, err
}

func (r *repoPG) ByVisitDirect(ctx context.Context, visitID int64) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+labTestCols+` FROM labtests WHERE visit_id = $1 ORDER BY test_id`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLabTests(rows)
}

func (r *repoPG) ByVisitMapped(ctx context.Context, visitID int64) ([]*LabTest, error) {
	qb := query.New("labtests", labTestCols)
	qb.Eq("visit_id", visitID)
	qb.OrderBy("test_id")

	rows, err := r.conn(ctx).Query(ctx, qb.SQL(), qb.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLabTests(rows)
}

func (r *repoPG) ByVisitNative(ctx context.Context, visitID int64) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT t.test_id, t.visit_id, COALESCE(t.patient_id,''), t.test_name,
			COALESCE(t.result,''), COALESCE(t.reference_range,''), COALESCE(t.status,''),
			t.test_given_at, t.result_updated_at
		FROM labtests t
		WHERE t.visit_id = $1
		ORDER BY t.test_id`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLabTests(rows)
}

// byVisitComprehensiveSQL unions the direct column match with a join through
// the visits table on the visit identifier. Both arms filter on the same
// visit, so rows belonging to the patient's other visits never leak in; the
// join arm additionally drops orphaned rows whose visit no longer exists.
const byVisitComprehensiveSQL = `
	SELECT ` + labTestCols + ` FROM labtests WHERE visit_id = $1
	UNION
	SELECT t.test_id, t.visit_id, COALESCE(t.patient_id,''), t.test_name,
		COALESCE(t.result,''), COALESCE(t.reference_range,''), COALESCE(t.status,''),
		t.test_given_at, t.result_updated_at
	FROM labtests t
	JOIN visits v ON t.visit_id = v.visit_id
	WHERE v.visit_id = $1
	ORDER BY test_id`

func (r *repoPG) ByVisitComprehensive(ctx context.Context, visitID int64) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx, byVisitComprehensiveSQL, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLabTests(rows)
}

func (r *repoPG) ByVisitAndPatient(ctx context.Context, visitID int64, patientID string) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+labTestCols+` FROM labtests WHERE visit_id = $1 AND patient_id = $2 ORDER BY test_id`,
		visitID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLabTests(rows)
}

func scanLabTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(
		&t.TestID, &t.VisitID, &t.PatientID, &t.TestName, &t.Result,
		&t.ReferenceRange, &t.Status, &t.TestGivenAt, &t.ResultUpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectLabTests(rows pgx.Rows) ([]*LabTest, error) {
	var tests []*LabTest
	for rows.Next() {
		var t LabTest
		err := rows.Scan(
			&t.TestID, &t.VisitID, &t.PatientID, &t.TestName, &t.Result,
			&t.ReferenceRange, &t.Status, &t.TestGivenAt, &t.ResultUpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tests = append(tests, &t)
	}
	return tests, rows.Err()
}
