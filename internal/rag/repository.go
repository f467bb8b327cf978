package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgStore persists chunks in Postgres with pgvector embeddings.
//
// Expected schema:
//
//	CREATE TABLE document_chunk (
//	    chunk_id    text PRIMARY KEY,
//	    document_id text NOT NULL,
//	    partner     text NOT NULL,
//	    partner_key text NOT NULL,
//	    doc_type    text NOT NULL,
//	    ordinal     int  NOT NULL,
//	    content     text NOT NULL,
//	    embedding   vector(768),
//	    created_at  timestamptz NOT NULL DEFAULT now()
//	);
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

// IndexDocument inserts every chunk of one document in a single transaction,
// so a concurrent search never observes a partially indexed document.
func (s *PgStore) IndexDocument(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return ErrEmptyDocument
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, c := range chunks {
			var emb interface{}
			if c.Embedding != nil {
				emb = pgvector.NewVector(c.Embedding)
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO document_chunk
					(chunk_id, document_id, partner, partner_key, doc_type, ordinal, content, embedding, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (chunk_id) DO NOTHING
			`,
				c.ID,
				c.DocumentID,
				c.Partner,
				NormalizePartner(c.Partner),
				c.Type,
				c.Ordinal,
				c.Content,
				emb,
				c.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert chunk %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// Search runs a cosine-similarity search restricted by filter.
func (s *PgStore) Search(ctx context.Context, filter SearchFilter, queryVec []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = 8
	}
	vec := pgvector.NewVector(queryVec)

	where := []string{"embedding IS NOT NULL"}
	args := []interface{}{vec}
	if filter.Partner != "" {
		args = append(args, NormalizePartner(filter.Partner))
		where = append(where, fmt.Sprintf("partner_key = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("doc_type = $%d", len(args)))
	}
	if len(filter.DocumentIDs) > 0 {
		args = append(args, filter.DocumentIDs)
		where = append(where, fmt.Sprintf("document_id = ANY($%d)", len(args)))
	}
	args = append(args, k)

	query := fmt.Sprintf(`
		SELECT chunk_id, document_id, partner, doc_type, ordinal, content, created_at,
			1 - (embedding <=> $1) AS score
		FROM document_chunk
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, strings.Join(where, " AND "), len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoredChunk
	for rows.Next() {
		var sc ScoredChunk
		if err := rows.Scan(
			&sc.ID,
			&sc.DocumentID,
			&sc.Partner,
			&sc.Type,
			&sc.Ordinal,
			&sc.Content,
			&sc.CreatedAt,
			&sc.Score,
		); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Partners lists the distinct resolved partner names in the index.
func (s *PgStore) Partners(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT partner
		FROM document_chunk
		WHERE partner <> $1
		ORDER BY partner
	`, PartnerUnresolved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

var _ Store = (*PgStore)(nil)
