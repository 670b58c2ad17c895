// Package sqlite stores investigations in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/workplace-hygiene/noiseexposure/internal/store"
	"github.com/workplace-hygiene/noiseexposure/pkg/acoustics"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
	"github.com/workplace-hygiene/noiseexposure/pkg/hearingprotection"
	"github.com/workplace-hygiene/noiseexposure/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a store.Store backed by SQLite
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

var _ store.Store = (*Store)(nil)

// NewMigrator returns a migrator for the embedded schema
func NewMigrator(db *sql.DB, logger *zap.SugaredLogger) *migrate.Migrator {
	return migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", "", "sqlite"), logger)
}

// Open opens (creating if needed) the database at path and brings its schema
// up to date
func Open(ctx context.Context, path string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := NewMigrator(db, logger).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}

	logger.Debugw("sqlite store ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveInvestigation replaces the snapshot with the given ID. Earlier
// statistics runs are kept.
func (s *Store) SaveInvestigation(ctx context.Context, inv *exposure.Investigation) error {
	if inv.ID == "" {
		return errors.New("investigation ID is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO investigations (id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		inv.ID, inv.Name, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("saving investigation %s: %w", inv.ID, err)
	}

	for _, table := range []string{"exposure_groups", "tasks", "instruments", "measurement_series", "measurements"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE investigation_id = ?", inv.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, g := range inv.Groups {
		protectors, err := json.Marshal(g.Protectors)
		if err != nil {
			return fmt.Errorf("encoding protectors of group %s: %w", g.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO exposure_groups (investigation_id, id, position, name, strategy, effective_duration_hours, worker_count, protectors)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, g.ID, i, g.Name, string(g.Strategy), g.EffectiveDurationHours, g.WorkerCount, string(protectors))
		if err != nil {
			return fmt.Errorf("saving group %s: %w", g.ID, err)
		}
	}

	for i, t := range inv.Tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (investigation_id, id, position, group_id, name, duration_hours, min_duration_hours, max_duration_hours)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, t.ID, i, t.GroupID, t.Name, t.DurationHours, nullFloat(t.MinDurationHours), nullFloat(t.MaxDurationHours))
		if err != nil {
			return fmt.Errorf("saving task %s: %w", t.ID, err)
		}
	}

	for i, in := range inv.Instruments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO instruments (investigation_id, id, position, name, kind, class, uncertainty_db)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, in.ID, i, in.Name, string(in.Kind), in.Class, nullFloat(in.UncertaintyDB))
		if err != nil {
			return fmt.Errorf("saving instrument %s: %w", in.ID, err)
		}
	}

	for i, sr := range inv.Series {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO measurement_series (investigation_id, id, position, instrument_id, calibration_before, calibration_mid, calibration_after)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, sr.ID, i, sr.InstrumentID, nullFloat(sr.CalibrationBefore), nullFloat(sr.CalibrationMid), nullFloat(sr.CalibrationAfter))
		if err != nil {
			return fmt.Errorf("saving series %s: %w", sr.ID, err)
		}
	}

	for i, m := range inv.Measurements {
		var spectrum sql.NullString
		if m.Spectrum != nil {
			b, err := json.Marshal(m.Spectrum)
			if err != nil {
				return fmt.Errorf("encoding spectrum of measurement %s: %w", m.ID, err)
			}
			spectrum = sql.NullString{String: string(b), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO measurements (investigation_id, id, position, group_id, task_id, series_id, laeq, lcpeak, spectrum, excluded, exclusion_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, m.ID, i, m.GroupID, m.TaskID, m.SeriesID, m.LAeq, nullFloat(m.LCPeak), spectrum, m.Excluded, m.ExclusionReason)
		if err != nil {
			return fmt.Errorf("saving measurement %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit investigation %s: %w", inv.ID, err)
	}

	s.logger.Debugw("saved investigation", "investigation", inv.ID,
		"groups", len(inv.Groups), "measurements", len(inv.Measurements))
	return nil
}

// LoadInvestigation reads a complete snapshot
func (s *Store) LoadInvestigation(ctx context.Context, id string) (*exposure.Investigation, error) {
	inv := &exposure.Investigation{ID: id}

	err := s.db.QueryRowContext(ctx, "SELECT name FROM investigations WHERE id = ?", id).Scan(&inv.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading investigation %s: %w", id, err)
	}

	loaders := []func(context.Context, *exposure.Investigation) error{
		s.loadGroups, s.loadTasks, s.loadInstruments, s.loadSeries, s.loadMeasurements,
	}
	for _, load := range loaders {
		if err := load(ctx, inv); err != nil {
			return nil, fmt.Errorf("loading investigation %s: %w", id, err)
		}
	}
	return inv, nil
}

func (s *Store) loadGroups(ctx context.Context, inv *exposure.Investigation) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, strategy, effective_duration_hours, worker_count, protectors
		FROM exposure_groups WHERE investigation_id = ? ORDER BY position`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			g          exposure.Group
			strategy   string
			protectors string
		)
		if err := rows.Scan(&g.ID, &g.Name, &strategy, &g.EffectiveDurationHours, &g.WorkerCount, &protectors); err != nil {
			return err
		}
		g.Strategy = exposure.Strategy(strategy)
		var decoded []hearingprotection.Protector
		if err := json.Unmarshal([]byte(protectors), &decoded); err != nil {
			return fmt.Errorf("decoding protectors of group %s: %w", g.ID, err)
		}
		if len(decoded) > 0 {
			g.Protectors = decoded
		}
		inv.Groups = append(inv.Groups, g)
	}
	return rows.Err()
}

func (s *Store) loadTasks(ctx context.Context, inv *exposure.Investigation) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, name, duration_hours, min_duration_hours, max_duration_hours
		FROM tasks WHERE investigation_id = ? ORDER BY position`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t        exposure.Task
			min, max sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.GroupID, &t.Name, &t.DurationHours, &min, &max); err != nil {
			return err
		}
		t.MinDurationHours, t.MaxDurationHours = floatPtr(min), floatPtr(max)
		inv.Tasks = append(inv.Tasks, t)
	}
	return rows.Err()
}

func (s *Store) loadInstruments(ctx context.Context, inv *exposure.Investigation) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, class, uncertainty_db
		FROM instruments WHERE investigation_id = ? ORDER BY position`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			in          exposure.Instrument
			kind        string
			uncertainty sql.NullFloat64
		)
		if err := rows.Scan(&in.ID, &in.Name, &kind, &in.Class, &uncertainty); err != nil {
			return err
		}
		in.Kind = exposure.InstrumentKind(kind)
		in.UncertaintyDB = floatPtr(uncertainty)
		inv.Instruments = append(inv.Instruments, in)
	}
	return rows.Err()
}

func (s *Store) loadSeries(ctx context.Context, inv *exposure.Investigation) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instrument_id, calibration_before, calibration_mid, calibration_after
		FROM measurement_series WHERE investigation_id = ? ORDER BY position`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sr                 exposure.Series
			before, mid, after sql.NullFloat64
		)
		if err := rows.Scan(&sr.ID, &sr.InstrumentID, &before, &mid, &after); err != nil {
			return err
		}
		sr.CalibrationBefore, sr.CalibrationMid, sr.CalibrationAfter = floatPtr(before), floatPtr(mid), floatPtr(after)
		inv.Series = append(inv.Series, sr)
	}
	return rows.Err()
}

func (s *Store) loadMeasurements(ctx context.Context, inv *exposure.Investigation) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, task_id, series_id, laeq, lcpeak, spectrum, excluded, exclusion_reason
		FROM measurements WHERE investigation_id = ? ORDER BY position`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m        exposure.Measurement
			peak     sql.NullFloat64
			spectrum sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.GroupID, &m.TaskID, &m.SeriesID, &m.LAeq, &peak, &spectrum, &m.Excluded, &m.ExclusionReason); err != nil {
			return err
		}
		m.LCPeak = floatPtr(peak)
		if spectrum.Valid {
			var sp acoustics.Spectrum
			if err := json.Unmarshal([]byte(spectrum.String), &sp); err != nil {
				return fmt.Errorf("decoding spectrum of measurement %s: %w", m.ID, err)
			}
			m.Spectrum = &sp
		}
		inv.Measurements = append(inv.Measurements, m)
	}
	return rows.Err()
}

// ListInvestigations returns all investigations ordered by ID
func (s *Store) ListInvestigations(ctx context.Context) ([]store.Summary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, updated_at FROM investigations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing investigations: %w", err)
	}
	defer rows.Close()

	var summaries []store.Summary
	for rows.Next() {
		var (
			sum     store.Summary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &updated); err != nil {
			return nil, fmt.Errorf("listing investigations: %w", err)
		}
		if sum.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// SaveStatistics records a computation run
func (s *Store) SaveStatistics(ctx context.Context, investigationID string, stats []exposure.Statistics) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "INSERT INTO statistics_runs (id, investigation_id, computed_at) VALUES (?, ?, ?)",
		runID, investigationID, formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("saving statistics run for %s: %w", investigationID, err)
	}

	for i, st := range stats {
		doc, err := json.Marshal(st)
		if err != nil {
			return "", fmt.Errorf("encoding statistics of group %s: %w", st.GroupID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_statistics (run_id, group_id, position, lex_8h, lex_8h_upper, verdict, document)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, st.GroupID, i, st.LEX8h, st.LEX8hUpper, string(st.Verdict), string(doc))
		if err != nil {
			return "", fmt.Errorf("saving statistics of group %s: %w", st.GroupID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit statistics run: %w", err)
	}
	return runID, nil
}

// LatestRun returns the most recent computation run of an investigation
func (s *Store) LatestRun(ctx context.Context, investigationID string) (*store.Run, error) {
	run := &store.Run{InvestigationID: investigationID}

	var computed string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, computed_at FROM statistics_runs
		WHERE investigation_id = ? ORDER BY computed_at DESC, rowid DESC LIMIT 1`, investigationID).Scan(&run.ID, &computed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no statistics for %s", store.ErrNotFound, investigationID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest run of %s: %w", investigationID, err)
	}
	if run.ComputedAt, err = parseTime(computed); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT document FROM group_statistics WHERE run_id = ? ORDER BY position", run.ID)
	if err != nil {
		return nil, fmt.Errorf("loading statistics of run %s: %w", run.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var st exposure.Statistics
		if err := json.Unmarshal([]byte(doc), &st); err != nil {
			return nil, fmt.Errorf("decoding statistics of run %s: %w", run.ID, err)
		}
		run.Statistics = append(run.Statistics, st)
	}
	return run, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// timeLayout keeps every fraction digit so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
