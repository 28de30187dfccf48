package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"modelguard/internal/deploy/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// PostgresStore persists activation records in the model_activations table.
// One row per family is current (superseded_at IS NULL); displaced rows are
// kept with superseded_at set. Both Activate and TransitionRollback are
// guarded UPDATEs inside a transaction, so a racing writer loses with a
// conflict instead of overwriting.
//
// Schema:
//
//	CREATE TABLE model_activations (
//	    id                 BIGSERIAL PRIMARY KEY,
//	    family             TEXT        NOT NULL,
//	    model_type         TEXT        NOT NULL,
//	    model_version      TEXT        NOT NULL,
//	    model_scope        TEXT        NOT NULL DEFAULT '',
//	    activated_at       TIMESTAMPTZ NOT NULL,
//	    validation_metrics JSONB       NOT NULL,
//	    previous_model     TEXT        NOT NULL DEFAULT '',
//	    previous_accuracy  DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    rollback_state     TEXT        NOT NULL,
//	    rollback_reason    TEXT        NOT NULL DEFAULT '',
//	    claimed_at         TIMESTAMPTZ,
//	    superseded_at      TIMESTAMPTZ
//	);
//	CREATE UNIQUE INDEX model_activations_current
//	    ON model_activations (family) WHERE superseded_at IS NULL;
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed activation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetActive returns the family's current activation record.
func (s *PostgresStore) GetActive(ctx context.Context, family string) (*models.ActivationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT model_type, model_version, model_scope, activated_at,
		       validation_metrics, previous_model, previous_accuracy,
		       rollback_state, rollback_reason, claimed_at
		FROM model_activations
		WHERE family = $1 AND superseded_at IS NULL`, family)

	record, err := scanActivation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no active model for family %q", family)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query active model")
	}
	return record, nil
}

// Activate installs record as the family's current model if and only if the
// current active identity equals expectedCurrent.
func (s *PostgresStore) Activate(ctx context.Context, record models.ActivationRecord, expectedCurrent domain.ModelID) error {
	family := record.ModelID.Family()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin activation")
	}
	defer tx.Rollback()

	// Supersede the current row only when it matches the expected identity.
	res, err := tx.ExecContext(ctx, `
		UPDATE model_activations
		SET superseded_at = now()
		WHERE family = $1 AND superseded_at IS NULL
		  AND model_type = $2 AND model_version = $3 AND model_scope = $4`,
		family, expectedCurrent.Type.String(), expectedCurrent.Version, expectedCurrent.Scope)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "supersede current model")
	}
	superseded, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "supersede current model")
	}
	if superseded == 0 && !expectedCurrent.IsNil() {
		return dErrors.Newf(dErrors.CodeConflict,
			"activation expected %s active for family %q", expectedCurrent.Key(), family)
	}

	metrics, err := json.Marshal(record.ValidationMetrics)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal validation metrics")
	}
	previousModel := ""
	if !record.PreviousModelID.IsNil() {
		previousModel = record.PreviousModelID.Key()
	}
	// The partial unique index rejects a second current row, so a bootstrap
	// race also surfaces as a conflict here.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO model_activations
		    (family, model_type, model_version, model_scope, activated_at,
		     validation_metrics, previous_model, previous_accuracy,
		     rollback_state, rollback_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		family, record.ModelID.Type.String(), record.ModelID.Version, record.ModelID.Scope,
		record.ActivatedAt, metrics, previousModel, record.PreviousAccuracy,
		string(record.RollbackState), record.RollbackReason)
	if err != nil {
		if isUniqueViolation(err) {
			return dErrors.Newf(dErrors.CodeConflict,
				"concurrent activation for family %q", family)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "insert activation record")
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit activation")
	}
	return nil
}

// TransitionRollback moves the current record's rollback state from "from"
// to "to". The state predicate in the UPDATE makes the claim atomic, and an
// EVALUATING claim is stamped with claimed_at so its lease can expire.
func (s *PostgresStore) TransitionRollback(ctx context.Context, family string, from, to models.RollbackState, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE model_activations
		SET rollback_state = $1,
		    rollback_reason = CASE WHEN $2 <> '' THEN $2 ELSE rollback_reason END,
		    claimed_at = CASE WHEN $1 = 'EVALUATING' THEN now() ELSE claimed_at END
		WHERE family = $3 AND superseded_at IS NULL AND rollback_state = $4`,
		string(to), reason, family, string(from))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transition rollback state")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transition rollback state")
	}
	if n == 0 {
		return dErrors.Newf(dErrors.CodeConflict,
			"rollback state for %q is not %s", family, from)
	}
	return nil
}

// ListActive returns every family's current activation record.
func (s *PostgresStore) ListActive(ctx context.Context) ([]models.ActivationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model_type, model_version, model_scope, activated_at,
		       validation_metrics, previous_model, previous_accuracy,
		       rollback_state, rollback_reason, claimed_at
		FROM model_activations
		WHERE superseded_at IS NULL
		ORDER BY family ASC`)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list active models")
	}
	defer rows.Close()

	var out []models.ActivationRecord
	for rows.Next() {
		record, err := scanActivation(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan activation record")
		}
		out = append(out, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate activation records")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivation(row rowScanner) (*models.ActivationRecord, error) {
	var (
		record        models.ActivationRecord
		modelType     string
		scope         string
		metricsJSON   []byte
		previousModel string
		state         string
		claimedAt     sql.NullTime
	)
	err := row.Scan(&modelType, &record.ModelID.Version, &scope, &record.ActivatedAt,
		&metricsJSON, &previousModel, &record.PreviousAccuracy,
		&state, &record.RollbackReason, &claimedAt)
	if err != nil {
		return nil, err
	}
	record.ModelID.Type = domain.ModelType(modelType)
	record.ModelID.Scope = scope
	record.RollbackState = models.RollbackState(state)
	if claimedAt.Valid {
		record.ClaimedAt = claimedAt.Time
	}
	if err := json.Unmarshal(metricsJSON, &record.ValidationMetrics); err != nil {
		return nil, err
	}
	if previousModel != "" {
		previous, err := domain.ParseModelID(previousModel)
		if err != nil {
			return nil, err
		}
		record.PreviousModelID = previous
	}
	return &record, nil
}

func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	return false
}
