// Package queue defines the background tasks that run on asynq.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// VerifyEvidenceTask is scheduled after every footage upload.
	VerifyEvidenceTask = "evidence:verify"

	verifyMaxRetry = 5
	verifyTimeout  = 10 * time.Minute
)

// VerifyPayload names the evidence whose stored bytes are re-hashed against its custody chain.
type VerifyPayload struct {
	EvidenceID uuid.UUID `json:"evidence_id"`
}

func NewVerifyTask(evidenceID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(VerifyPayload{EvidenceID: evidenceID})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(VerifyEvidenceTask, data, asynq.MaxRetry(verifyMaxRetry), asynq.Timeout(verifyTimeout)), nil
}

func ParseVerifyPayload(task *asynq.Task) (VerifyPayload, error) {
	var p VerifyPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	if p.EvidenceID == uuid.Nil {
		return p, fmt.Errorf("decode payload: missing evidence id")
	}
	return p, nil
}

// Client enqueues tasks.
type Client struct {
	client *asynq.Client
}

func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

func (c *Client) EnqueueVerify(ctx context.Context, evidenceID uuid.UUID) error {
	task, err := NewVerifyTask(evidenceID)
	if err != nil {
		return err
	}
	// One verification per evidence at a time; a duplicate upload event is dropped.
	if _, err := c.client.EnqueueContext(ctx, task, asynq.TaskID(VerifyEvidenceTask+":"+evidenceID.String())); err != nil {
		return fmt.Errorf("enqueue verify task: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
