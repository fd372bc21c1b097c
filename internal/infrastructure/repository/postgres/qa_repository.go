package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// QARepository persists the Q&A corpus. Question embeddings are stored as
// JSON arrays next to the provider that produced them.
type QARepository struct {
	db *sql.DB
}

func NewQARepository(db *sql.DB) *QARepository {
	return &QARepository{db: db}
}

func (r *QARepository) UpsertEntries(ctx context.Context, entries []domain.QAEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin corpus tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, entry := range entries {
		var embeddingJSON []byte
		if !entry.Embedding.Empty() {
			embeddingJSON, err = json.Marshal(entry.Embedding.Values)
			if err != nil {
				return fmt.Errorf("marshal embedding: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO qa_entries (id, question, answer, emotion, category, embedding, embedding_provider, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	question = EXCLUDED.question,
	answer = EXCLUDED.answer,
	emotion = EXCLUDED.emotion,
	category = EXCLUDED.category,
	embedding = EXCLUDED.embedding,
	embedding_provider = EXCLUDED.embedding_provider
`,
			entry.ID, entry.Question, entry.Answer, string(entry.Emotion), entry.Category,
			nullableJSON(embeddingJSON), entry.Embedding.Provider, entry.CreatedAt,
		); err != nil {
			return fmt.Errorf("upsert qa entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit corpus tx: %w", err)
	}
	return nil
}

func (r *QARepository) ListEntries(ctx context.Context) ([]domain.QAEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, question, answer, emotion, category, embedding, embedding_provider, created_at
FROM qa_entries
ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list qa entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QAEntry, 0)
	for rows.Next() {
		var entry domain.QAEntry
		var emotion string
		var embeddingRaw []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Question,
			&entry.Answer,
			&emotion,
			&entry.Category,
			&embeddingRaw,
			&entry.Embedding.Provider,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan qa entry: %w", err)
		}
		entry.Emotion = domain.ParseEmotion(emotion)
		if len(embeddingRaw) > 0 {
			if err := json.Unmarshal(embeddingRaw, &entry.Embedding.Values); err != nil {
				return nil, fmt.Errorf("unmarshal embedding of %s: %w", entry.ID, err)
			}
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate qa entries: %w", err)
	}
	return out, nil
}

func (r *QARepository) DeleteAll(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM qa_entries`)
	if err != nil {
		return 0, fmt.Errorf("delete qa entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete qa entries rows affected: %w", err)
	}
	return int(affected), nil
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
