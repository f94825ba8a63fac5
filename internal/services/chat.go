package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"chatdock-backend/internal/models"
)

// RepairQueue is the redis list the worker pool consumes repair jobs from.
const RepairQueue = "queue:chat-repair"

const titleRuneLimit = 40

type chatStore interface {
	Create(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, id uuid.UUID, userID string) (*models.Chat, error)
	AppendTurns(ctx context.Context, id uuid.UUID, userID string, turns []models.Turn) error
	Delete(ctx context.Context, id uuid.UUID, userID string) (bool, error)
	ListOrphans(ctx context.Context, userID string) ([]*models.Chat, error)
}

type userChatsStore interface {
	AppendSummary(ctx context.Context, userID string, summary models.ChatSummary) error
	List(ctx context.Context, userID string) ([]models.ChatSummary, error)
	PullSummary(ctx context.Context, userID string, chatID uuid.UUID) ([]models.ChatSummary, error)
	ListDangling(ctx context.Context, userID string) ([]models.ChatSummary, error)
}

// ChatService orchestrates the chat documents and the per-user chat index.
// Every operation is scoped to the owner resolved at the HTTP boundary; an
// owner mismatch is indistinguishable from a missing chat.
type ChatService struct {
	chats     chatStore
	userChats userChatsStore
	redis     *redis.Client
}

func NewChatService(chats chatStore, userChats userChatsStore, redisClient *redis.Client) *ChatService {
	return &ChatService{
		chats:     chats,
		userChats: userChats,
		redis:     redisClient,
	}
}

// CreateChat inserts a new chat seeded with the user's first message and
// registers it in the user's chat index. The two writes are not
// transactional: when the index write fails the freshly created chat is
// compensated away, falling back to the repair queue if even the
// compensating delete fails.
func (s *ChatService) CreateChat(ctx context.Context, userID, text string) (uuid.UUID, error) {
	if strings.TrimSpace(text) == "" {
		return uuid.Nil, &ValidationError{Fields: map[string]string{"text": "Text is required"}}
	}

	chat := &models.Chat{
		UserID: userID,
		History: []models.Turn{
			{Role: models.RoleUser, Parts: []models.Part{{Text: text}}},
		},
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create chat: %w", err)
	}

	summary := models.ChatSummary{ID: chat.ID, Title: chatTitle(text)}
	if err := s.userChats.AppendSummary(ctx, userID, summary); err != nil {
		if _, delErr := s.chats.Delete(ctx, chat.ID, userID); delErr != nil {
			log.Printf("compensation delete failed for chat %s: %v", chat.ID, delErr)
			s.enqueueRepair(ctx, models.RepairJob{
				Type:   models.JobDeleteOrphanChat,
				UserID: userID,
				ChatID: chat.ID,
			})
		}
		return uuid.Nil, fmt.Errorf("failed to index chat: %w", err)
	}

	return chat.ID, nil
}

// AppendTurn appends zero-or-one user turns followed by exactly one model
// turn to the chat history, in that order, as one atomic store update. An
// image reference only rides on a user turn.
func (s *ChatService) AppendTurn(ctx context.Context, userID string, chatID uuid.UUID, question, answer, img string) error {
	if strings.TrimSpace(answer) == "" {
		return &ValidationError{Fields: map[string]string{"answer": "Answer is required"}}
	}

	var turns []models.Turn
	if question != "" {
		turns = append(turns, models.Turn{
			Role:  models.RoleUser,
			Parts: []models.Part{{Text: question}},
			Img:   img,
		})
	}
	turns = append(turns, models.Turn{
		Role:  models.RoleModel,
		Parts: []models.Part{{Text: answer}},
	})

	err := s.chats.AppendTurns(ctx, chatID, userID, turns)
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: "Chat not found"}
	}
	return err
}

// ListChats returns the user's chat index. A user with no index row yet gets
// an empty list, not an error.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	summaries, err := s.userChats.List(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return []models.ChatSummary{}, nil
	}
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *ChatService) GetChat(ctx context.Context, userID string, chatID uuid.UUID) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "Chat not found"}
	}
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// DeleteChat pulls the chat's entry from the user's index, then deletes the
// chat document. Both steps are owner-scoped independently. When the chat row
// is already gone the index entry has still been removed, so a reconcile job
// is queued before reporting not-found.
func (s *ChatService) DeleteChat(ctx context.Context, userID string, chatID uuid.UUID) ([]models.ChatSummary, error) {
	summaries, err := s.userChats.PullSummary(ctx, userID, chatID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "User chats not found"}
	}
	if err != nil {
		return nil, err
	}

	deleted, err := s.chats.Delete(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		s.enqueueRepair(ctx, models.RepairJob{Type: models.JobReconcileUser, UserID: userID})
		return nil, &NotFoundError{Message: "Chat not found"}
	}

	return summaries, nil
}

// Reconcile restores the chat/index bijection for one user: chats missing
// from the index get their summaries re-added, index entries without a
// backing chat are pulled.
func (s *ChatService) Reconcile(ctx context.Context, userID string) (models.ReconcileReport, error) {
	var report models.ReconcileReport

	orphans, err := s.chats.ListOrphans(ctx, userID)
	if err != nil {
		return report, err
	}
	for _, chat := range orphans {
		summary := models.ChatSummary{ID: chat.ID, Title: chatTitle(firstUserText(chat.History))}
		if err := s.userChats.AppendSummary(ctx, userID, summary); err != nil {
			return report, err
		}
		report.RestoredSummaries++
	}

	dangling, err := s.userChats.ListDangling(ctx, userID)
	if err != nil {
		return report, err
	}
	for _, entry := range dangling {
		if _, err := s.userChats.PullSummary(ctx, userID, entry.ID); err != nil {
			return report, err
		}
		report.RemovedEntries++
	}

	return report, nil
}

// DeleteOrphanChat removes a chat that lost its index entry mid-creation.
// Called by the repair workers.
func (s *ChatService) DeleteOrphanChat(ctx context.Context, userID string, chatID uuid.UUID) error {
	_, err := s.chats.Delete(ctx, chatID, userID)
	return err
}

func (s *ChatService) enqueueRepair(ctx context.Context, job models.RepairJob) {
	if s.redis == nil {
		return
	}
	job.ID = uuid.New()
	jobBytes, _ := json.Marshal(job)
	if err := s.redis.LPush(ctx, RepairQueue, string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue repair job %s: %v", job.ID, err)
	}
}

// chatTitle derives the index title from the chat's opening text.
func chatTitle(text string) string {
	runes := []rune(text)
	if len(runes) > titleRuneLimit {
		runes = runes[:titleRuneLimit]
	}
	return string(runes)
}

func firstUserText(history []models.Turn) string {
	for _, turn := range history {
		if turn.Role == models.RoleUser && len(turn.Parts) > 0 {
			return turn.Parts[0].Text
		}
	}
	return "Recovered chat"
}
