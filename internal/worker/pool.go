package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"chatdock-backend/internal/models"
	"chatdock-backend/internal/services"
)

type reconciler interface {
	DeleteOrphanChat(ctx context.Context, userID string, chatID uuid.UUID) error
	Reconcile(ctx context.Context, userID string) (models.ReconcileReport, error)
}

// Pool consumes consistency-repair jobs from the redis queue. Jobs land
// there when the create-chat saga cannot compensate inline, or when a delete
// notices the chat row was already gone.
type Pool struct {
	redis       *redis.Client
	chatService reconciler
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, chatService reconciler, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		chatService: chatService,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d repair worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Repair worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.RepairQueue).Result()
		if err != nil {
			continue // Timeout or transient error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.RepairJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Repair worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("repair_lock:%s", job.ID)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		p.process(ctx, id, job)
	}
}

func (p *Pool) process(ctx context.Context, id int, job models.RepairJob) {
	log.Printf("Repair worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

	switch job.Type {
	case models.JobDeleteOrphanChat:
		if err := p.chatService.DeleteOrphanChat(ctx, job.UserID, job.ChatID); err != nil {
			log.Printf("Repair worker %d: delete orphan chat %s: %v", id, job.ChatID, err)
		}

	case models.JobReconcileUser:
		report, err := p.chatService.Reconcile(ctx, job.UserID)
		if err != nil {
			log.Printf("Repair worker %d: reconcile user %s: %v", id, job.UserID, err)
			return
		}
		if report.RestoredSummaries > 0 || report.RemovedEntries > 0 {
			log.Printf("Repair worker %d: reconciled user %s (restored %d, removed %d)",
				id, job.UserID, report.RestoredSummaries, report.RemovedEntries)
		}

	default:
		log.Printf("Repair worker %d: unknown job type %q", id, job.Type)
	}
}
