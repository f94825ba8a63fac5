package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"chatdock-backend/internal/models"
)

type fakeReconciler struct {
	deletedUser  string
	deletedChat  uuid.UUID
	reconciled   []string
	deleteErr    error
	reconcileErr error
}

func (f *fakeReconciler) DeleteOrphanChat(ctx context.Context, userID string, chatID uuid.UUID) error {
	f.deletedUser, f.deletedChat = userID, chatID
	return f.deleteErr
}

func (f *fakeReconciler) Reconcile(ctx context.Context, userID string) (models.ReconcileReport, error) {
	f.reconciled = append(f.reconciled, userID)
	return models.ReconcileReport{RestoredSummaries: 1}, f.reconcileErr
}

func TestProcessDeleteOrphanChat(t *testing.T) {
	fake := &fakeReconciler{}
	p := NewPool(nil, fake, 1)

	chatID := uuid.New()
	p.process(context.Background(), 0, models.RepairJob{
		ID:     uuid.New(),
		Type:   models.JobDeleteOrphanChat,
		UserID: "user_a",
		ChatID: chatID,
	})

	if fake.deletedUser != "user_a" || fake.deletedChat != chatID {
		t.Errorf("expected orphan delete for (user_a, %s), got (%s, %s)", chatID, fake.deletedUser, fake.deletedChat)
	}
	if len(fake.reconciled) != 0 {
		t.Error("delete job must not trigger a reconcile")
	}
}

func TestProcessReconcileUser(t *testing.T) {
	fake := &fakeReconciler{}
	p := NewPool(nil, fake, 1)

	p.process(context.Background(), 0, models.RepairJob{
		ID:     uuid.New(),
		Type:   models.JobReconcileUser,
		UserID: "user_b",
	})

	if len(fake.reconciled) != 1 || fake.reconciled[0] != "user_b" {
		t.Errorf("expected one reconcile for user_b, got %v", fake.reconciled)
	}
}

func TestProcessUnknownJobType(t *testing.T) {
	fake := &fakeReconciler{}
	p := NewPool(nil, fake, 1)

	// Must not panic or touch the service.
	p.process(context.Background(), 0, models.RepairJob{
		ID:   uuid.New(),
		Type: "defragment-moon-base",
	})

	if fake.deletedUser != "" || len(fake.reconciled) != 0 {
		t.Error("unknown job type must be ignored")
	}
}

func TestProcessToleratesServiceErrors(t *testing.T) {
	fake := &fakeReconciler{
		deleteErr:    errors.New("db down"),
		reconcileErr: errors.New("db down"),
	}
	p := NewPool(nil, fake, 1)

	p.process(context.Background(), 0, models.RepairJob{
		ID: uuid.New(), Type: models.JobDeleteOrphanChat, UserID: "u", ChatID: uuid.New(),
	})
	p.process(context.Background(), 0, models.RepairJob{
		ID: uuid.New(), Type: models.JobReconcileUser, UserID: "u",
	})
}
