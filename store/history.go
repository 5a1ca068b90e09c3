// Package store keeps verification reports in a SQLite database so they can
// be fetched again by run id.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Aashish23092/payslip-verifier/dto"
)

// ErrNotFound is returned when no report has the requested run id.
var ErrNotFound = errors.New("report not found")

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	run_id       TEXT PRIMARY KEY,
	generated_at TEXT NOT NULL,
	period       TEXT NOT NULL,
	errors       INTEGER NOT NULL,
	warnings     INTEGER NOT NULL,
	body         BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_generated_at ON reports (generated_at);
`

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Summary is one row of the report listing.
type Summary struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Period      string    `json:"period"`
	Errors      int       `json:"errors"`
	Warnings    int       `json:"warnings"`
}

type History struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (and if needed creates) the history database at path. Use
// ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *zap.Logger) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// sqlite allows one writer; an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	logger.Info("report history opened", zap.String("path", path))
	return &History{db: db, logger: logger}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Save stores r. Saving the same run id twice replaces the earlier row.
func (h *History) Save(ctx context.Context, r *dto.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	period := ""
	if len(r.Records) > 0 {
		period = r.Records[0].Period.String()
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (run_id, generated_at, period, errors, warnings, body) VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.GeneratedAt.UTC().Format(timeLayout), period,
		r.Count(dto.SeverityError), r.Count(dto.SeverityWarning), body)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.RunID, err)
	}
	h.logger.Debug("report saved", zap.String("run_id", r.RunID))
	return nil
}

// Get loads the report with the given run id.
func (h *History) Get(ctx context.Context, runID string) (*dto.Report, error) {
	var body []byte
	err := h.db.QueryRowContext(ctx, `SELECT body FROM reports WHERE run_id = ?`, runID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query report %s: %w", runID, err)
	}

	var r dto.Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &r, nil
}

// List returns the most recent reports first, at most limit rows.
func (h *History) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT run_id, generated_at, period, errors, warnings FROM reports ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s           Summary
			generatedAt string
		)
		if err := rows.Scan(&s.RunID, &generatedAt, &s.Period, &s.Errors, &s.Warnings); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		s.GeneratedAt, err = time.Parse(timeLayout, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("report %s: bad timestamp %q: %w", s.RunID, generatedAt, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
