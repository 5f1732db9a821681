/*
Package sqlite provides a SQLite-backed implementation of the store Gateway.

PURPOSE:
  Single-file deployments without a MongoDB instance. Documents are stored
  as JSON text, one table per collection, with filters translated into
  json_extract() predicates so the same Filter semantics hold across
  backends.

TABLES:
  docs_<collection>(id TEXT PRIMARY KEY, seq INTEGER, body TEXT)

UNIQUE INDEXES:
  EnsureUniqueIndex builds an expression index over json_extract paths.
  SQLITE_CONSTRAINT violations surface as store.ErrConflict, so the
  roster upsert race resolves exactly as it does on Mongo.

WAL MODE:
  Opened with WAL and foreign keys on. Multiple readers, single writer.

USAGE:
  gw, err := sqlite.New("./backoffice.db")
  defer gw.Close(ctx)

SEE ALSO:
  - store/gateway.go: interface definitions
  - store/mongo: the production adapter
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/sabaispa/backoffice/store"
)

// Gateway implements store.Gateway on a SQLite database.
type Gateway struct {
	db *sql.DB
	mu sync.Mutex // guards lazy table creation
}

// New opens (and creates if needed) the database at path.
// Use ":memory:" for an in-memory database.
func New(path string) (*Gateway, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Gateway{db: db}, nil
}

func (g *Gateway) Ready(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (g *Gateway) Close(context.Context) error { return g.db.Close() }

func (g *Gateway) Collection(name string) store.Collection {
	return &collection{g: g, name: name, table: "docs_" + sanitize(name)}
}

var namePattern = regexp.MustCompile(`[^a-z0-9_]+`)

func sanitize(name string) string {
	return namePattern.ReplaceAllString(strings.ToLower(name), "_")
}

// =============================================================================
// COLLECTION
// =============================================================================

type collection struct {
	g     *Gateway
	name  string
	table string
}

func (c *collection) ensureTable(ctx context.Context) error {
	c.g.mu.Lock()
	defer c.g.mu.Unlock()
	_, err := c.g.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id   TEXT PRIMARY KEY,
			seq  INTEGER NOT NULL DEFAULT 0,
			body TEXT NOT NULL
		)`, c.table))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", c.table, err)
	}
	return nil
}

func (c *collection) EnsureUniqueIndex(ctx context.Context, fields ...string) error {
	if err := c.ensureTable(ctx); err != nil {
		return err
	}
	exprs := make([]string, len(fields))
	parts := make([]string, len(fields))
	for i, f := range fields {
		exprs[i] = jsonPath(f)
		parts[i] = sanitize(strings.ReplaceAll(f, ".", "_"))
	}
	name := fmt.Sprintf("uq_%s_%s", c.table, strings.Join(parts, "_"))
	_, err := c.g.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s(%s)",
		name, c.table, strings.Join(exprs, ", ")))
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	return nil
}

func (c *collection) FindOne(ctx context.Context, filter store.Filter) (store.Document, error) {
	docs, err := c.query(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0], nil
}

func (c *collection) Find(ctx context.Context, filter store.Filter) ([]store.Document, error) {
	return c.query(ctx, filter, 0)
}

func (c *collection) Insert(ctx context.Context, doc store.Document) (string, error) {
	if err := c.ensureTable(ctx); err != nil {
		return "", err
	}
	id, body, err := encode(doc)
	if err != nil {
		return "", err
	}
	_, err = c.g.db.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, seq, body) VALUES (?, (SELECT COALESCE(MAX(seq),0)+1 FROM %s), ?)",
		c.table, c.table), id, body)
	if err != nil {
		return "", mapErr(err)
	}
	return id, nil
}

func (c *collection) Update(ctx context.Context, filter store.Filter, set store.Document) (store.Document, error) {
	if err := c.ensureTable(ctx); err != nil {
		return nil, err
	}
	tx, err := c.g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr(err)
	}
	defer tx.Rollback()

	doc, err := c.findOneTx(ctx, tx, filter)
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		doc[k] = v
	}
	id, body, err := encode(doc)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET body = ? WHERE id = ?", c.table), body, id); err != nil {
		return nil, mapErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr(err)
	}
	return doc, nil
}

func (c *collection) Upsert(ctx context.Context, filter store.Filter, set, setOnInsert store.Document) (store.Document, bool, error) {
	if err := c.ensureTable(ctx); err != nil {
		return nil, false, err
	}
	tx, err := c.g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, mapErr(err)
	}
	defer tx.Rollback()

	doc, err := c.findOneTx(ctx, tx, filter)
	switch {
	case err == nil:
		for k, v := range set {
			doc[k] = v
		}
		id, body, encErr := encode(doc)
		if encErr != nil {
			return nil, false, encErr
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET body = ? WHERE id = ?", c.table), body, id); err != nil {
			return nil, false, mapErr(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, mapErr(err)
		}
		return doc, false, nil

	case errors.Is(err, store.ErrNotFound):
		// Mongo upsert semantics: equality conditions of the filter become
		// fields of the created document.
		doc = store.Document{}
		for _, cond := range filter {
			if cond.Op == store.OpEq {
				doc[cond.Field] = cond.Value
			}
		}
		for k, v := range set {
			doc[k] = v
		}
		for k, v := range setOnInsert {
			doc[k] = v
		}
		id, body, encErr := encode(doc)
		if encErr != nil {
			return nil, false, encErr
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"INSERT INTO %s (id, seq, body) VALUES (?, (SELECT COALESCE(MAX(seq),0)+1 FROM %s), ?)",
			c.table, c.table), id, body); err != nil {
			return nil, false, mapErr(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, mapErr(err)
		}
		return doc, true, nil

	default:
		return nil, false, err
	}
}

func (c *collection) Delete(ctx context.Context, filter store.Filter) error {
	if err := c.ensureTable(ctx); err != nil {
		return err
	}
	where, args := buildWhere(filter)
	res, err := c.g.db.ExecContext(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE id IN (SELECT id FROM %s %s ORDER BY seq LIMIT 1)",
		c.table, c.table, where), args...)
	if err != nil {
		return mapErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// =============================================================================
// QUERY PLUMBING
// =============================================================================

func (c *collection) query(ctx context.Context, filter store.Filter, limit int) ([]store.Document, error) {
	if err := c.ensureTable(ctx); err != nil {
		return nil, err
	}
	where, args := buildWhere(filter)
	q := fmt.Sprintf("SELECT id, body FROM %s %s ORDER BY seq", c.table, where)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := c.g.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, mapErr(err)
		}
		doc, err := decode(id, body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (c *collection) findOneTx(ctx context.Context, tx *sql.Tx, filter store.Filter) (store.Document, error) {
	where, args := buildWhere(filter)
	row := tx.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT id, body FROM %s %s ORDER BY seq LIMIT 1", c.table, where), args...)
	var id, body string
	if err := row.Scan(&id, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, mapErr(err)
	}
	return decode(id, body)
}

func buildWhere(filter store.Filter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	var clauses []string
	var args []any
	for _, cond := range filter {
		expr := jsonPath(cond.Field)
		if cond.Field == store.IDField {
			expr = "id"
		}
		op := "="
		switch cond.Op {
		case store.OpGte:
			op = ">="
		case store.OpLte:
			op = "<="
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", expr, op))
		args = append(args, cond.Value)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func jsonPath(field string) string {
	return fmt.Sprintf("json_extract(body, '$.%s')", field)
}

func encode(doc store.Document) (id string, body string, err error) {
	id, _ = doc[store.IDField].(string)
	if id == "" {
		id = uuid.NewString()
		doc[store.IDField] = id
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode document: %w", err)
	}
	return id, string(b), nil
}

func decode(id, body string) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	doc[store.IDField] = id
	return doc, nil
}

func mapErr(err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}
