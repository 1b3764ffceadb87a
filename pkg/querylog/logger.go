// Package querylog records search requests in a dedicated SQLite database.
package querylog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taaft-ai/toolsearch/pkg/models"
	_ "modernc.org/sqlite"
)

// Logger writes and queries search log entries.
type Logger struct {
	db     *sql.DB
	cfg    models.QueryLogConfig
	now    func() time.Time
	logger *slog.Logger
	done   chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock sets the time source used for retention.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New opens the query log database, creates the schema and starts the
// hourly retention loop.
func New(cfg models.QueryLogConfig, opts ...Option) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open query log db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate query log db: %w", err)
	}

	l := &Logger{
		db:     db,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "querylog"),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.wg.Add(1)
	go l.retentionLoop()

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS query_log (
		request_id   TEXT PRIMARY KEY,
		method       TEXT NOT NULL,
		path         TEXT NOT NULL,
		route_class  TEXT NOT NULL DEFAULT '',
		cache_key    TEXT,
		body         TEXT,
		status_code  INTEGER NOT NULL,
		cache_hit    INTEGER NOT NULL DEFAULT 0,
		latency_ms   INTEGER NOT NULL DEFAULT 0,
		created_at   DATETIME NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_query_log_path ON query_log(path)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_query_log_created ON query_log(created_at)`)
	return err
}

// Log inserts an entry. Bodies longer than MaxBodySize are truncated.
func (l *Logger) Log(ctx context.Context, entry models.QueryLogEntry) error {
	if l == nil || l.db == nil {
		return nil
	}
	body := entry.Body
	if l.cfg.MaxBodySize > 0 && len(body) > l.cfg.MaxBodySize {
		body = body[:l.cfg.MaxBodySize]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now().UTC()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO query_log
		(request_id, method, path, route_class, cache_key, body,
		 status_code, cache_hit, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID, entry.Method, entry.Path, entry.RouteClass,
		entry.CacheKey, body, entry.StatusCode, entry.CacheHit,
		entry.LatencyMs, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}

// Query returns entries matching opts, newest first.
func (l *Logger) Query(ctx context.Context, opts models.QueryLogOpts) ([]models.QueryLogEntry, error) {
	q := `SELECT request_id, method, path, route_class, cache_key, body,
		status_code, cache_hit, latency_ms, created_at
		FROM query_log WHERE 1=1`
	var args []any

	if opts.RequestID != "" {
		q += " AND request_id = ?"
		args = append(args, opts.RequestID)
	}
	if opts.Path != "" {
		q += " AND path = ?"
		args = append(args, opts.Path)
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	if opts.CacheHit != nil {
		q += " AND cache_hit = ?"
		args = append(args, *opts.CacheHit)
	}

	q += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	var entries []models.QueryLogEntry
	for rows.Next() {
		var e models.QueryLogEntry
		var cacheKey, body sql.NullString
		if err := rows.Scan(
			&e.RequestID, &e.Method, &e.Path, &e.RouteClass, &cacheKey, &body,
			&e.StatusCode, &e.CacheHit, &e.LatencyMs, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan query log row: %w", err)
		}
		e.CacheKey = cacheKey.String
		e.Body = body.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns request counts, cache hits and mean latency grouped by
// path and day.
func (l *Logger) Stats(ctx context.Context) ([]models.QueryLogStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, date(created_at) AS day, count(*), sum(cache_hit), avg(latency_ms)
		 FROM query_log GROUP BY path, day ORDER BY day DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("query log stats: %w", err)
	}
	defer rows.Close()

	var stats []models.QueryLogStat
	for rows.Next() {
		var s models.QueryLogStat
		var day sql.NullString
		if err := rows.Scan(&s.Path, &day, &s.Count, &s.CacheHits, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan query log stat: %w", err)
		}
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes entries older than the retention period. A non-positive
// retention keeps everything.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	if l.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := l.now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx, `DELETE FROM query_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("query log cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			n, err := l.Cleanup(context.Background())
			if err != nil {
				l.logger.Warn("query log cleanup failed", "error", err)
			} else if n > 0 {
				l.logger.Info("pruned query log", "deleted", n)
			}
		}
	}
}
