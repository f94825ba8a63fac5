package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatdock-backend/internal/models"
)

// UserChatsRepo persists one index row per user holding a JSONB array of
// {id, title} summaries for fast listing.
type UserChatsRepo struct {
	pool *pgxpool.Pool
}

func NewUserChatsRepo(pool *pgxpool.Pool) *UserChatsRepo {
	return &UserChatsRepo{pool: pool}
}

// AppendSummary adds one entry to the user's index, creating the index row on
// the user's first chat. One statement either way, so the append is atomic.
func (r *UserChatsRepo) AppendSummary(ctx context.Context, userID string, summary models.ChatSummary) error {
	entryBytes, _ := json.Marshal(summary)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_chats (user_id, chats)
		 VALUES ($1, jsonb_build_array($2::jsonb))
		 ON CONFLICT (user_id)
		 DO UPDATE SET chats = user_chats.chats || $2::jsonb, updated_at = NOW()`,
		userID, entryBytes,
	)
	return err
}

// List returns the user's summaries. Returns pgx.ErrNoRows when the user has
// no index row yet; the service layer decides what that means.
func (r *UserChatsRepo) List(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	var chatsBytes []byte
	err := r.pool.QueryRow(ctx, "SELECT chats FROM user_chats WHERE user_id = $1", userID).Scan(&chatsBytes)
	if err != nil {
		return nil, err
	}

	summaries := []models.ChatSummary{}
	if err := json.Unmarshal(chatsBytes, &summaries); err != nil {
		return nil, fmt.Errorf("corrupt chat index for user %s: %w", userID, err)
	}
	return summaries, nil
}

// PullSummary removes the entry for chatID by rebuilding the array without it
// and returns the updated list. Returns pgx.ErrNoRows when the user has no
// index row.
func (r *UserChatsRepo) PullSummary(ctx context.Context, userID string, chatID uuid.UUID) ([]models.ChatSummary, error) {
	var chatsBytes []byte

	query := `UPDATE user_chats SET chats = (
			SELECT COALESCE(jsonb_agg(entry), '[]'::jsonb)
			FROM jsonb_array_elements(user_chats.chats) AS entry
			WHERE entry->>'id' <> $2
		), updated_at = NOW()
		WHERE user_id = $1
		RETURNING chats`

	err := r.pool.QueryRow(ctx, query, userID, chatID.String()).Scan(&chatsBytes)
	if err != nil {
		return nil, err
	}

	summaries := []models.ChatSummary{}
	if err := json.Unmarshal(chatsBytes, &summaries); err != nil {
		return nil, fmt.Errorf("corrupt chat index for user %s: %w", userID, err)
	}
	return summaries, nil
}

// ListDangling returns index entries of one user that point at chats which no
// longer exist. Used by the reconciler.
func (r *UserChatsRepo) ListDangling(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	query := `SELECT entry
		FROM user_chats uc, jsonb_array_elements(uc.chats) AS entry
		WHERE uc.user_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM chats c
			WHERE c.id = (entry->>'id')::uuid AND c.user_id = uc.user_id
		  )`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dangling []models.ChatSummary
	for rows.Next() {
		var entryBytes []byte
		if err := rows.Scan(&entryBytes); err != nil {
			return nil, err
		}
		var summary models.ChatSummary
		if err := json.Unmarshal(entryBytes, &summary); err != nil {
			return nil, fmt.Errorf("corrupt chat index for user %s: %w", userID, err)
		}
		dangling = append(dangling, summary)
	}

	return dangling, rows.Err()
}
