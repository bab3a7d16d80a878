package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"roomassist/internal/model"
)

// Embedder computes embeddings for indexing and querying.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// PostgresRetriever keeps room summaries and their embeddings in a pgvector
// table, for deployments that want the index to survive restarts or be
// shared between instances.
type PostgresRetriever struct {
	db       *sqlx.DB
	embedder Embedder
}

type indexedRoom struct {
	RoomID    int             `db:"room_id"`
	Name      string          `db:"name"`
	Summary   string          `db:"summary"`
	Embedding pgvector.Vector `db:"embedding"`
}

// NewPostgresRetriever connects to PostgreSQL and ensures the index schema
// exists.
func NewPostgresRetriever(dsn string, maxConn, maxIdleConn, dimensions int, embedder Embedder) (*PostgresRetriever, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &PostgresRetriever{db: db, embedder: embedder}
	if err := r.ensureSchema(dimensions); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database connection.
func (r *PostgresRetriever) Close() error {
	return r.db.Close()
}

func (r *PostgresRetriever) ensureSchema(dimensions int) error {
	if _, err := r.db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS room_index (
			room_id   INTEGER PRIMARY KEY,
			name      TEXT NOT NULL,
			summary   TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dimensions)
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create room_index table: %w", err)
	}
	return nil
}

// Reindex replaces the whole index with embeddings for the given rooms.
// Runs in a single transaction so readers never see a partial index.
func (r *PostgresRetriever) Reindex(ctx context.Context, rooms []model.Room) error {
	texts := make([]string, len(rooms))
	for i, room := range rooms {
		texts[i] = room.SummaryLine()
	}

	embeddings, err := r.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed summaries: %w", err)
	}
	if len(embeddings) != len(rooms) {
		return fmt.Errorf("expected %d embeddings, got %d", len(rooms), len(embeddings))
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM room_index`); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO room_index (room_id, name, summary, embedding) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, room := range rooms {
		vec := pgvector.NewVector(embeddings[i])
		if _, err := stmt.ExecContext(ctx, room.ID, room.Name, room.SummaryLine(), vec); err != nil {
			return fmt.Errorf("failed to index room %q: %w", room.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

// TopK embeds the query and returns the k nearest summary lines by cosine
// distance.
func (r *PostgresRetriever) TopK(ctx context.Context, query string, k int) ([]string, error) {
	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var rows []indexedRoom
	err = r.db.SelectContext(ctx, &rows,
		`SELECT room_id, name, summary, embedding
		 FROM room_index
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.Summary)
	}
	return lines, nil
}
