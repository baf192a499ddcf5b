// Package postgresql provides a PostgreSQL-backed store keeping documents in
// a single JSONB table. Field operations compose into one UPDATE statement,
// so a batch of ops commits atomically.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/landdiv/landflow/pkg/store"
	"github.com/landdiv/landflow/pkg/store/sqlbase"
)

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger := slog.Default().With("module", "postgresql")

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: database, logger: logger}, nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				id TEXT NOT NULL,
				doc JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				PRIMARY KEY (collection, id)
			);

			CREATE INDEX IF NOT EXISTS documents_collection_idx
				ON documents (collection);
		`,
	}
}

func (s *Store) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	var body []byte

	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM documents WHERE collection = $1 AND id = $2",
		collection, id,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.NewNotFoundError(collection, id)
		}

		return fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		return fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}

	return nil
}

func (s *Store) Create(ctx context.Context, collection string, doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	var fields map[string]any

	err = json.Unmarshal(data, &fields)
	if err != nil {
		return "", fmt.Errorf("failed to decode document fields: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate document ID: %w", err)
	}

	fields["id"] = id.String()

	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)",
		collection, id.String(), body,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}

	return id.String(), nil
}

// Update composes the field operations into nested jsonb expressions and
// commits them in a single UPDATE.
func (s *Store) Update(ctx context.Context, collection, id string, ops []store.Op) error {
	if len(ops) == 0 {
		return errors.New("update requires at least one operation")
	}

	expr := "doc"
	args := []any{collection, id}

	placeholder := func(value any) string {
		args = append(args, value)

		return fmt.Sprintf("$%d", len(args))
	}

	for _, op := range ops {
		parts := splitPath(op.Field)
		path := placeholder(pq.Array(parts))

		// jsonb_set returns the target unchanged when an intermediate path
		// segment is missing, so parents of dotted fields are materialized
		// first. Ops also read back from the running expression, never the
		// doc column, so earlier ops in the batch stay visible.
		if op.Kind != store.OpUnset {
			for i := 1; i < len(parts); i++ {
				prefix := placeholder(pq.Array(parts[:i]))
				expr = fmt.Sprintf(
					"jsonb_set(%s, %s::text[], COALESCE(%s #> %s::text[], '{}'::jsonb), true)",
					expr, prefix, expr, prefix,
				)
			}
		}

		switch op.Kind {
		case store.OpSet:
			value, err := marshalValue(op.Value)
			if err != nil {
				return err
			}

			expr = fmt.Sprintf("jsonb_set(%s, %s::text[], %s::jsonb, true)", expr, path, placeholder(value))
		case store.OpArrayAppend:
			value, err := marshalValue(op.Value)
			if err != nil {
				return err
			}

			expr = fmt.Sprintf(
				"jsonb_set(%s, %s::text[], COALESCE(%s #> %s::text[], '[]'::jsonb) || jsonb_build_array(%s::jsonb), true)",
				expr, path, expr, path, placeholder(value),
			)
		case store.OpIncrement:
			expr = fmt.Sprintf(
				"jsonb_set(%s, %s::text[], to_jsonb(COALESCE((%s #>> %s::text[])::numeric, 0) + %s::numeric), true)",
				expr, path, expr, path, placeholder(op.Value),
			)
		case store.OpUnset:
			expr = fmt.Sprintf("(%s #- %s::text[])", expr, path)
		default:
			return fmt.Errorf("unsupported op kind %d", op.Kind)
		}
	}

	query := "UPDATE documents SET doc = " + expr + ", updated_at = NOW() WHERE collection = $1 AND id = $2"

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result for %s/%s: %w", collection, id, err)
	}

	if affected == 0 {
		return store.NewNotFoundError(collection, id)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = $1 AND id = $2",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, collection string, opts store.ListOptions, out any) error {
	query := "SELECT doc FROM documents WHERE collection = $1"
	args := []any{collection}

	for field, value := range opts.Filters {
		args = append(args, field)
		fieldArg := len(args)

		args = append(args, fmt.Sprintf("%v", value))
		valueArg := len(args)

		query += fmt.Sprintf(" AND doc ->> $%d = $%d", fieldArg, valueArg)
	}

	if opts.OrderBy != "" {
		args = append(args, opts.OrderBy)
		query += fmt.Sprintf(" ORDER BY doc ->> $%d", len(args))

		if opts.Desc {
			query += " DESC"
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	defer func() { _ = rows.Close() }()

	docs := make([]json.RawMessage, 0)

	for rows.Next() {
		var body []byte

		err = rows.Scan(&body)
		if err != nil {
			return fmt.Errorf("failed to scan document from %s: %w", collection, err)
		}

		docs = append(docs, json.RawMessage(body))
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("failed to read collection %s: %w", collection, err)
	}

	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to marshal listed documents: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("failed to decode listed documents: %w", err)
	}

	return nil
}

func splitPath(field string) []string {
	return strings.Split(field, ".")
}

func marshalValue(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal field value: %w", err)
	}

	return string(data), nil
}
