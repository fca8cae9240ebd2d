package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/nexadash/dcx/pkg/observability"
)

// Row is a single result row keyed by column name
type Row = map[string]interface{}

// HealthDoc describes the health of one tenant database
type HealthDoc struct {
	Status       string     `json:"status"` // ok, warning, blocked
	Failures     uint32     `json:"failures"`
	Blocked      bool       `json:"blocked"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}

// Executor runs SQL against tenant databases with per-tenant health tracking
type Executor interface {
	// Validate opens a fresh connection and runs SELECT 1. It never touches
	// the breaker state.
	Validate(ctx context.Context, tenantID string) error
	// Execute runs a query. A blocked tenant short-circuits to an empty result
	// without reaching the database and without counting as a failure.
	Execute(ctx context.Context, tenantID, query string, args ...interface{}) ([]Row, error)
	// Status reports the breaker state for a tenant
	Status(tenantID string) HealthDoc
	// Reset clears failure state for one tenant, or all when empty
	Reset(tenantID string)
}

type executor struct {
	log      logrus.FieldLogger
	config   *Config
	breakers *breakerSet
}

// NewExecutor creates a tenant-aware warehouse executor
func NewExecutor(log logrus.FieldLogger, cfg *Config) (Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	l := log.WithField("service", "warehouse")

	return &executor{
		log:      l,
		config:   cfg,
		breakers: newBreakerSet(l, cfg.MaxFails, cfg.BlockFor),
	}, nil
}

func (e *executor) Validate(ctx context.Context, tenantID string) error {
	dsn, err := e.config.DSN(tenantID)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}

	defer closeQuietly(e.log, db)

	pingCtx, cancel := context.WithTimeout(ctx, e.config.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("tenant %s unreachable: %w", tenantID, err)
	}

	var one int
	if err := db.QueryRowContext(pingCtx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("tenant %s probe failed: %w", tenantID, err)
	}

	return nil
}

func (e *executor) Execute(ctx context.Context, tenantID, query string, args ...interface{}) ([]Row, error) {
	cb := e.breakers.get(tenantID)

	start := time.Now()

	rows, err := cb.Execute(func() ([]Row, error) {
		return e.query(ctx, tenantID, query, args...)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		e.log.WithField("tenant", tenantID).Warn("Tenant blocked, skipping query")
		observability.WarehouseQueries.WithLabelValues(tenantID, "blocked").Inc()

		return []Row{}, nil
	case err != nil:
		kind := classifyError(err)

		e.log.WithError(err).WithFields(logrus.Fields{
			"tenant": tenantID,
			"kind":   string(kind),
		}).Error("Query failed")

		observability.WarehouseQueries.WithLabelValues(tenantID, string(kind)).Inc()

		return []Row{}, err
	}

	observability.WarehouseQueries.WithLabelValues(tenantID, "success").Inc()
	observability.WarehouseQueryDuration.WithLabelValues(tenantID).Observe(time.Since(start).Seconds())

	return rows, nil
}

func (e *executor) Status(tenantID string) HealthDoc {
	failures, blocked, until := e.breakers.state(tenantID)

	doc := HealthDoc{Failures: failures, Blocked: blocked}

	switch {
	case blocked:
		doc.Status = "blocked"
		doc.BlockedUntil = &until
	case failures > 0:
		doc.Status = "warning"
	default:
		doc.Status = "ok"
	}

	return doc
}

func (e *executor) Reset(tenantID string) {
	e.breakers.reset(tenantID)
	e.log.WithField("tenant", tenantID).Info("Tenant failure state reset")
}

// query opens a fresh engine, pins a session for the lock timeout pragma, runs
// the statement under the query timeout, and disposes everything on exit.
func (e *executor) query(ctx context.Context, tenantID, query string, args ...interface{}) ([]Row, error) {
	dsn, err := e.config.DSN(tenantID)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	defer closeQuietly(e.log, db)

	queryCtx, cancel := context.WithTimeout(ctx, e.config.QueryTimeout)
	defer cancel()

	conn, err := db.Conn(queryCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			e.log.WithError(closeErr).Debug("Failed to close connection")
		}
	}()

	lockTimeout := fmt.Sprintf("SET LOCK_TIMEOUT %d", e.config.QueryTimeout.Milliseconds())
	if _, err := conn.ExecContext(queryCtx, lockTimeout); err != nil {
		return nil, fmt.Errorf("failed to set lock timeout: %w", err)
	}

	rows, err := conn.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			e.log.WithError(closeErr).Debug("Failed to close rows")
		}
	}()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := make([]Row, 0)

	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func closeQuietly(log logrus.FieldLogger, db *sql.DB) {
	if err := db.Close(); err != nil {
		log.WithError(err).Debug("Failed to close database")
	}
}
