package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatdock-backend/internal/models"
)

// ChatRepo persists one row per conversation. The turn history lives in a
// single JSONB column so each append or delete is one atomic statement.
type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, chat *models.Chat) error {
	chat.ID = uuid.New()
	historyBytes, err := json.Marshal(chat.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `INSERT INTO chats (id, user_id, history)
		VALUES ($1, $2, $3) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, chat.ID, chat.UserID, historyBytes).
		Scan(&chat.CreatedAt, &chat.UpdatedAt)
}

func (r *ChatRepo) GetByID(ctx context.Context, id uuid.UUID, userID string) (*models.Chat, error) {
	chat := &models.Chat{}
	var historyBytes []byte

	query := `SELECT id, user_id, history, created_at, updated_at
		FROM chats WHERE id = $1 AND user_id = $2`

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&chat.ID, &chat.UserID, &historyBytes, &chat.CreatedAt, &chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(historyBytes, &chat.History); err != nil {
		return nil, fmt.Errorf("corrupt history for chat %s: %w", id, err)
	}
	return chat, nil
}

// AppendTurns grows the history by the given turns in one atomic UPDATE,
// scoped to id+owner. Returns pgx.ErrNoRows when no such chat exists for
// this user.
func (r *ChatRepo) AppendTurns(ctx context.Context, id uuid.UUID, userID string, turns []models.Turn) error {
	turnBytes, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to marshal turns: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE chats SET history = history || $3::jsonb, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		id, userID, turnBytes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the chat row scoped to id+owner and reports whether a row
// was actually deleted.
func (r *ChatRepo) Delete(ctx context.Context, id uuid.UUID, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM chats WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListOrphans returns the user's chats that have no entry in the user's chat
// index, oldest first. Used by the reconciler to rebuild lost summaries.
func (r *ChatRepo) ListOrphans(ctx context.Context, userID string) ([]*models.Chat, error) {
	query := `SELECT c.id, c.user_id, c.history, c.created_at, c.updated_at
		FROM chats c
		LEFT JOIN user_chats uc ON uc.user_id = c.user_id
		WHERE c.user_id = $1
		  AND NOT COALESCE(uc.chats, '[]'::jsonb) @> jsonb_build_array(jsonb_build_object('id', c.id::text))
		ORDER BY c.created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		chat := &models.Chat{}
		var historyBytes []byte
		if err := rows.Scan(&chat.ID, &chat.UserID, &historyBytes, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(historyBytes, &chat.History); err != nil {
			return nil, fmt.Errorf("corrupt history for chat %s: %w", chat.ID, err)
		}
		chats = append(chats, chat)
	}

	return chats, rows.Err()
}
