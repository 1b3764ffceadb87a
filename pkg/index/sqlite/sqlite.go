// Package sqlite is a local catalog index on SQLite FTS5.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/taaft-ai/toolsearch/pkg/index"
	"github.com/taaft-ai/toolsearch/pkg/keywords"
	"github.com/taaft-ai/toolsearch/pkg/models"
)

// Index stores tool records and answers index queries with bm25 ranking.
type Index struct {
	db *sql.DB
}

var _ index.Backend = (*Index)(nil)

const createIndexTables = `
CREATE TABLE IF NOT EXISTS tools (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tool_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	categories TEXT NOT NULL DEFAULT '[]',
	keywords TEXT NOT NULL DEFAULT '',
	pricing TEXT NOT NULL DEFAULT '',
	rating REAL,
	doc TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tools_pricing ON tools(pricing);

CREATE VIRTUAL TABLE IF NOT EXISTS tools_fts USING fts5(
	name, description, categories, keywords,
	content='tools',
	content_rowid='id',
	tokenize='unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS tools_ai AFTER INSERT ON tools BEGIN
	INSERT INTO tools_fts(rowid, name, description, categories, keywords)
	VALUES (new.id, new.name, new.description, new.categories, new.keywords);
END;

CREATE TRIGGER IF NOT EXISTS tools_ad AFTER DELETE ON tools BEGIN
	INSERT INTO tools_fts(tools_fts, rowid, name, description, categories, keywords)
	VALUES ('delete', old.id, old.name, old.description, old.categories, old.keywords);
END;

CREATE TRIGGER IF NOT EXISTS tools_au AFTER UPDATE ON tools BEGIN
	INSERT INTO tools_fts(tools_fts, rowid, name, description, categories, keywords)
	VALUES ('delete', old.id, old.name, old.description, old.categories, old.keywords);
	INSERT INTO tools_fts(rowid, name, description, categories, keywords)
	VALUES (new.id, new.name, new.description, new.categories, new.keywords);
END;
`

// Open opens or creates the index database at dbPath.
func Open(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(createIndexTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate index db: %w", err)
	}
	return &Index{db: db}, nil
}

// RelaxesNatively is false: the client drops words itself.
func (ix *Index) RelaxesNatively() bool {
	return false
}

// Upsert inserts or replaces a tool record keyed by its ID.
func (ix *Index) Upsert(ctx context.Context, rec models.ToolRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("upsert tool: missing id")
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode tool %s: %w", rec.ID, err)
	}
	cats := rec.Categories
	if cats == nil {
		cats = []string{}
	}
	catJSON, _ := json.Marshal(lower(cats))

	var rating any
	if rec.Rating != nil {
		rating = *rec.Rating
	}

	_, err = ix.db.ExecContext(ctx, `
		INSERT INTO tools (tool_id, name, description, categories, keywords, pricing, rating, doc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(tool_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			categories = excluded.categories,
			keywords = excluded.keywords,
			pricing = excluded.pricing,
			rating = excluded.rating,
			doc = excluded.doc,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Description, string(catJSON),
		strings.Join(rec.Keywords, " "), strings.ToLower(rec.Pricing), rating, string(doc),
	)
	if err != nil {
		return fmt.Errorf("upsert tool %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes a tool by ID.
func (ix *Index) Delete(ctx context.Context, id string) error {
	if _, err := ix.db.ExecContext(ctx, `DELETE FROM tools WHERE tool_id = ?`, id); err != nil {
		return fmt.Errorf("delete tool %s: %w", id, err)
	}
	return nil
}

// Count returns the number of indexed tools.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tools`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tools: %w", err)
	}
	return n, nil
}

// Query runs q and returns one page of raw hits.
func (ix *Index) Query(ctx context.Context, q index.Query) (*index.RawResult, error) {
	match := matchExpr(q)

	var where []string
	var args []any
	from := "tools t"
	order := "t.rating IS NULL, t.rating DESC, t.name"
	if match != "" {
		from = "tools_fts JOIN tools t ON t.id = tools_fts.rowid"
		where = append(where, "tools_fts MATCH ?")
		args = append(args, match)
		order = "bm25(tools_fts, 10.0, 3.0, 2.0, 2.0), t.name"
	} else if q.Mode != index.ModeNLP {
		// keyword and direct searches need something to match
		return &index.RawResult{}, nil
	}

	if len(q.Categories) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(t.categories) WHERE value IN ("+placeholders(len(q.Categories))+"))")
		for _, c := range q.Categories {
			args = append(args, strings.ToLower(c))
		}
	}
	if len(q.Pricing) > 0 {
		where = append(where, "t.pricing IN ("+placeholders(len(q.Pricing))+")")
		for _, p := range q.Pricing {
			args = append(args, strings.ToLower(p))
		}
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+from+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	if total == 0 {
		return &index.RawResult{Hits: []map[string]any{}}, nil
	}

	pageArgs := append(append([]any{}, args...), q.PerPage, q.Page*q.PerPage)
	rows, err := ix.db.QueryContext(ctx,
		"SELECT t.doc FROM "+from+clause+" ORDER BY "+order+" LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("query tools: %w", err)
	}
	defer rows.Close()

	hits := []map[string]any{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		var hit map[string]any
		if err := json.Unmarshal([]byte(doc), &hit); err != nil {
			// let the formatter fall back on what it can read
			hit = map[string]any{"_raw": doc}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tools: %w", err)
	}
	return &index.RawResult{Hits: hits, Total: total}, nil
}

// Close releases the database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// matchExpr builds the FTS5 MATCH expression for q, or "" when q has no
// usable terms.
func matchExpr(q index.Query) string {
	switch q.Mode {
	case index.ModeKeyword:
		var phrases []string
		for _, kw := range q.Keywords {
			if kw = strings.TrimSpace(keywords.Normalize(kw)); kw != "" {
				phrases = append(phrases, quote(kw))
			}
		}
		return strings.Join(phrases, " OR ")
	case index.ModeDirect:
		terms := prefixTerms(q.Text)
		if terms == "" {
			return ""
		}
		return "{name description} : (" + terms + ")"
	default:
		return prefixTerms(q.Text)
	}
}

// prefixTerms ANDs the prefix form of every token of text. Prefix matching
// stands in for typo tolerance on plurals and stems.
func prefixTerms(text string) string {
	var terms []string
	for _, tok := range keywords.Tokenize(text) {
		terms = append(terms, quote(tok)+"*")
	}
	return strings.Join(terms, " AND ")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
