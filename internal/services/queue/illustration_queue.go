package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// illustrationKey is the global queue holding pending illustration jobs.
const illustrationKey = "illustrations"

// JobKind distinguishes the illustration targets.
type JobKind string

const (
	JobScene   JobKind = "scene"
	JobProfile JobKind = "profile"
	JobIcon    JobKind = "icon"
)

// Job is one queued illustration request. Epoch pins the job to the
// session state it was created from; workers discard results for sessions
// whose epoch has moved on.
type Job struct {
	SessionID uuid.UUID `json:"session_id"`
	Epoch     int       `json:"epoch"`
	Kind      JobKind   `json:"kind"`
	Prompt    string    `json:"prompt"`
	ItemName  string    `json:"item_name,omitempty"`
}

// IllustrationQueue manages pending illustration jobs in a Redis list.
type IllustrationQueue struct {
	client *Client
}

func NewIllustrationQueue(client *Client) *IllustrationQueue {
	return &IllustrationQueue{client: client}
}

// Enqueue adds a job to the end of the queue.
func (q *IllustrationQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize illustration job: %w", err)
	}
	if err := q.client.rdb.RPush(ctx, illustrationKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue illustration job: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job. Returns (nil, nil) when
// the timeout elapses with an empty queue.
func (q *IllustrationQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.rdb.BLPop(ctx, timeout, illustrationKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue illustration job: %w", err)
	}
	// BLPop returns [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result length %d", len(res))
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to parse illustration job: %w", err)
	}
	return &job, nil
}

// Depth returns the number of pending jobs.
func (q *IllustrationQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, illustrationKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}
