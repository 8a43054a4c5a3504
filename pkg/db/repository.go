package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/photoblog/resize-images/pkg/errors"
	"github.com/photoblog/resize-images/pkg/pipeline"
	_ "modernc.org/sqlite"
)

// Repository provides database operations for the derivatives catalog
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("database_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("database_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Workers share one file; serialize writers.
	db.SetMaxOpenConns(1)

	slog.Info("database_create_schema", "db_path", dbPath)
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("database_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to create schema")
	}

	slog.Info("database_ready", "db_path", dbPath)
	return &Repository{db: db}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new derivative record
func (r *Repository) Create(d *Derivative) error {
	slog.Info("database_create_derivative", "run_id", d.RunID, "source", d.SourceName)

	query := `
		INSERT INTO derivatives (run_id, source_name, output_name, operation,
		                         source_width, source_height, full_path, thumb_path, source_retired)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		d.RunID, d.SourceName, d.OutputName, d.Operation,
		d.SourceWidth, d.SourceHeight, d.FullPath, d.ThumbPath, d.SourceRetired)
	if err != nil {
		slog.Error("database_insert_failed", "source", d.SourceName, "error", err)
		return errors.Wrap(err, "failed to insert derivative")
	}

	id, err := result.LastInsertId()
	if err != nil {
		slog.Error("database_last_insert_id_failed", "source", d.SourceName, "error", err)
		return errors.Wrap(err, "failed to get last insert id")
	}
	d.ID = id

	slog.Info("database_derivative_created", "source", d.SourceName, "derivative_id", d.ID)
	return nil
}

// Get retrieves a derivative by ID. It returns nil, nil when no row matches.
func (r *Repository) Get(id int64) (*Derivative, error) {
	query := `SELECT ` + columns + ` FROM derivatives WHERE id = ?`

	d, err := scanDerivative(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("database_query_failed", "derivative_id", id, "error", err)
		return nil, errors.Wrap(err, "failed to query derivative")
	}
	return d, nil
}

// List retrieves the most recent derivatives, newest first. limit <= 0 means all.
func (r *Repository) List(limit int) ([]*Derivative, error) {
	query := `SELECT ` + columns + ` FROM derivatives ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return r.query(query)
}

// ListByRun retrieves the derivatives of one run in insertion order.
func (r *Repository) ListByRun(runID string) ([]*Derivative, error) {
	query := `SELECT ` + columns + ` FROM derivatives WHERE run_id = ? ORDER BY id`
	return r.query(query, runID)
}

func (r *Repository) query(query string, args ...any) ([]*Derivative, error) {
	slog.Info("database_list_derivatives")

	rows, err := r.db.Query(query, args...)
	if err != nil {
		slog.Error("database_list_query_failed", "error", err)
		return nil, errors.Wrap(err, "failed to list derivatives")
	}
	defer rows.Close()

	var out []*Derivative
	for rows.Next() {
		d, err := scanDerivative(rows)
		if err != nil {
			slog.Error("database_scan_row_failed", "error", err)
			return nil, errors.Wrap(err, "failed to scan row")
		}
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		slog.Error("database_rows_error", "error", err)
		return nil, errors.Wrap(err, "rows error")
	}

	slog.Info("database_list_complete", "derivative_count", len(out))
	return out, nil
}

const columns = `id, run_id, source_name, output_name, operation,
	source_width, source_height, full_path, thumb_path, source_retired, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDerivative(s scanner) (*Derivative, error) {
	var d Derivative
	var createdAt sql.NullString
	err := s.Scan(
		&d.ID, &d.RunID, &d.SourceName, &d.OutputName, &d.Operation,
		&d.SourceWidth, &d.SourceHeight, &d.FullPath, &d.ThumbPath, &d.SourceRetired, &createdAt)
	if err != nil {
		return nil, err
	}
	d.CreatedAt = createdAt.String
	return &d, nil
}

// Name identifies the catalog in outcomes and logs.
func (r *Repository) Name() string {
	return "catalog"
}

// Deliver records a successful outcome. It satisfies pipeline.Sink.
func (r *Repository) Deliver(ctx context.Context, o pipeline.Outcome) error {
	return r.Create(FromOutcome(o))
}

// FromOutcome maps a successful outcome to a catalog row.
func FromOutcome(o pipeline.Outcome) *Derivative {
	return &Derivative{
		RunID:         o.Item.RunID,
		SourceName:    o.Item.SourceName,
		OutputName:    o.Item.OutputName,
		Operation:     string(o.Operation),
		SourceWidth:   o.Dimensions.Width,
		SourceHeight:  o.Dimensions.Height,
		FullPath:      o.Item.FullPath,
		ThumbPath:     o.Item.ThumbPath,
		SourceRetired: o.SourceRetired,
	}
}
