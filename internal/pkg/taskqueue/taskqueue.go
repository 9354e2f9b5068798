package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisc "github.com/cryptonic-cms/core/internal/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TaskStatus represents the lifecycle state of an image-fetch task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// ImageTask is one deferred image download stored in Redis. The triggering
// request records the pending URL on the content row and enqueues one of
// these; a scheduler job drains the queue later.
type ImageTask struct {
	ID        string     `json:"id"`
	OwnerType string     `json:"owner_type"` // drink | cocktail
	OwnerID   uint       `json:"owner_id"`
	Slot      string     `json:"slot"` // image | cutout_image
	URL       string     `json:"url"`
	Status    TaskStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

const (
	keyPrefix = "cc:imgtask:"
	keyIndex  = "cc:imgtasks:index" // sorted set: score=created_at, member=task_id
	keyDedup  = "cc:imgtasks:dedup" // hash: owner:slot:url -> task_id
	taskTTL   = 7 * 24 * time.Hour
)

// Service manages the Redis-backed image-fetch queue.
type Service struct {
	rc *redisc.Client
}

func NewService(rc *redisc.Client) *Service {
	return &Service{rc: rc}
}

func (s *Service) taskKey(id string) string { return keyPrefix + id }

func dedupKey(ownerType string, ownerID uint, slot, url string) string {
	return fmt.Sprintf("%s:%d:%s:%s", ownerType, ownerID, slot, url)
}

// Enqueue queues a deferred fetch for one image slot. A slot/URL pair already
// queued is returned as-is rather than duplicated.
func (s *Service) Enqueue(ctx context.Context, ownerType string, ownerID uint, slot, url string) (*ImageTask, error) {
	dk := dedupKey(ownerType, ownerID, slot, url)
	if existing, err := s.rc.Raw().HGet(ctx, keyDedup, dk).Result(); err == nil && existing != "" {
		if task, err := s.GetByID(ctx, existing); err == nil && task != nil && task.Status == TaskPending {
			return task, nil
		}
	}

	task := &ImageTask{
		ID:        uuid.New().String(),
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Slot:      slot,
		URL:       url,
		Status:    TaskPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	data, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}

	pipe := s.rc.Raw().TxPipeline()
	pipe.Set(ctx, s.taskKey(task.ID), data, taskTTL)
	pipe.ZAdd(ctx, keyIndex, redis.Z{
		Score:  float64(task.CreatedAt.UnixMilli()),
		Member: task.ID,
	})
	pipe.HSet(ctx, keyDedup, dk, task.ID)
	pipe.Expire(ctx, keyDedup, taskTTL)
	_, err = pipe.Exec(ctx)
	return task, err
}

// GetByID retrieves a task by its ID. Returns (nil, nil) when absent.
func (s *Service) GetByID(ctx context.Context, id string) (*ImageTask, error) {
	data, err := s.rc.Raw().Get(ctx, s.taskKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var task ImageTask
	return &task, json.Unmarshal(data, &task)
}

// Pending returns all tasks still awaiting a fetch, oldest first.
func (s *Service) Pending(ctx context.Context) ([]*ImageTask, error) {
	ids, err := s.rc.Raw().ZRange(ctx, keyIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]*ImageTask, 0, len(ids))
	for _, id := range ids {
		task, err := s.GetByID(ctx, id)
		if err != nil || task == nil {
			continue
		}
		if task.Status == TaskPending || task.Status == TaskRunning {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// UpdateStatus sets a task's status and optional error message. Terminal
// states release the dedup slot so the URL can be queued again later.
func (s *Service) UpdateStatus(ctx context.Context, id string, status TaskStatus, errMsg string) error {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %q not found", id)
	}

	task.Status = status
	task.UpdatedAt = time.Now()
	task.Error = errMsg

	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	pipe := s.rc.Raw().TxPipeline()
	pipe.Set(ctx, s.taskKey(id), data, taskTTL)
	if status == TaskCompleted || status == TaskFailed {
		pipe.HDel(ctx, keyDedup, dedupKey(task.OwnerType, task.OwnerID, task.Slot, task.URL))
		pipe.ZRem(ctx, keyIndex, id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Remove deletes a task regardless of state.
func (s *Service) Remove(ctx context.Context, id string) error {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %q not found", id)
	}
	pipe := s.rc.Raw().TxPipeline()
	pipe.Del(ctx, s.taskKey(id))
	pipe.ZRem(ctx, keyIndex, id)
	pipe.HDel(ctx, keyDedup, dedupKey(task.OwnerType, task.OwnerID, task.Slot, task.URL))
	_, err = pipe.Exec(ctx)
	return err
}
