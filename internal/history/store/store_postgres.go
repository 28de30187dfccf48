package store

import (
	"context"
	"database/sql"

	"modelguard/internal/history/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// PostgresLog reads the prediction log table populated by the inference
// service. Read-only: this pipeline never writes inference events.
type PostgresLog struct {
	db *sql.DB
}

// NewPostgresLog constructs a Postgres-backed prediction log reader.
func NewPostgresLog(db *sql.DB) *PostgresLog {
	return &PostgresLog{db: db}
}

// Query returns records for the model in the window, oldest first.
func (s *PostgresLog) Query(ctx context.Context, modelID domain.ModelID, window models.TimeRange, outcomeKnownOnly bool) ([]models.PredictionRecord, error) {
	query := `
		SELECT point_estimate, ts, actual_outcome
		FROM prediction_log
		WHERE model_type = $1 AND model_version = $2 AND model_scope = $3
		  AND ts >= $4 AND ts < $5`
	if outcomeKnownOnly {
		query += ` AND actual_outcome IS NOT NULL`
	}
	query += ` ORDER BY ts ASC`

	rows, err := s.db.QueryContext(ctx, query,
		modelID.Type.String(), modelID.Version, modelID.Scope, window.From, window.To)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query prediction log")
	}
	defer rows.Close()

	var out []models.PredictionRecord
	for rows.Next() {
		var (
			r       models.PredictionRecord
			outcome sql.NullInt64
		)
		if err := rows.Scan(&r.PointEstimate, &r.Timestamp, &outcome); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan prediction record")
		}
		r.ModelID = modelID
		if outcome.Valid {
			v := int(outcome.Int64)
			r.ActualOutcome = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate prediction log")
	}
	return out, nil
}

// PostgresSnapshots reads the daily performance snapshot table written by the
// external aggregation process. Its schema is a hard dependency.
type PostgresSnapshots struct {
	db *sql.DB
}

// NewPostgresSnapshots constructs a Postgres-backed snapshot reader.
func NewPostgresSnapshots(db *sql.DB) *PostgresSnapshots {
	return &PostgresSnapshots{db: db}
}

// Query returns snapshots for the model in the window, oldest first.
func (s *PostgresSnapshots) Query(ctx context.Context, modelID domain.ModelID, window models.TimeRange) ([]models.PerformanceSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, accuracy, precision, recall, f1, pr_auc, sample_count, outcome_coverage
		FROM performance_snapshots
		WHERE model_type = $1 AND model_version = $2 AND model_scope = $3
		  AND date >= $4 AND date < $5
		ORDER BY date ASC`,
		modelID.Type.String(), modelID.Version, modelID.Scope, window.From, window.To)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query performance snapshots")
	}
	defer rows.Close()

	var out []models.PerformanceSnapshot
	for rows.Next() {
		var snap models.PerformanceSnapshot
		if err := rows.Scan(&snap.Date, &snap.Accuracy, &snap.Precision, &snap.Recall,
			&snap.F1, &snap.PRAUC, &snap.SampleCount, &snap.OutcomeCoverage); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan performance snapshot")
		}
		snap.ModelID = modelID
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate performance snapshots")
	}
	return out, nil
}
