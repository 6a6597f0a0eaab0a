// Package queue publishes mapped records onto rmq queues so downstream
// workers can consume them from Redis.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/adjust/rmq/v5"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
)

// QueueOpener is satisfied by rmq.Connection.
type QueueOpener interface {
	OpenQueue(name string) (rmq.Queue, error)
}

type ScheduleMessage struct {
	Kind    string            `json:"kind"`
	RID     string            `json:"rid"`
	Records []schedule.Record `json:"records"`
}

type MovementMessage struct {
	RID  string         `json:"rid"`
	Rows []movement.Row `json:"rows"`
}

// Publisher writes one message per call onto "<prefix>-<stream>".
type Publisher struct {
	connection QueueOpener
	prefix     string

	mu     sync.Mutex
	queues map[string]rmq.Queue
}

func NewPublisher(connection QueueOpener, prefix string) *Publisher {
	if prefix == "" {
		prefix = "pushport"
	}

	return &Publisher{
		connection: connection,
		prefix:     prefix,
		queues:     map[string]rmq.Queue{},
	}
}

func (p *Publisher) QueueName(stream string) string {
	return fmt.Sprintf("%s-%s", p.prefix, stream)
}

func (p *Publisher) queue(stream string) (rmq.Queue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := p.QueueName(stream)
	if queue, ok := p.queues[name]; ok {
		return queue, nil
	}

	queue, err := p.connection.OpenQueue(name)
	if err != nil {
		return nil, fmt.Errorf("open queue %s: %w", name, err)
	}
	p.queues[name] = queue

	return queue, nil
}

func (p *Publisher) publish(ctx context.Context, stream string, message any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	queue, err := p.queue(stream)
	if err != nil {
		return err
	}

	return queue.PublishBytes(payload)
}

func (p *Publisher) WriteSchedule(ctx context.Context, kind string, rid string, records []schedule.Record) error {
	return p.publish(ctx, kind, ScheduleMessage{Kind: kind, RID: rid, Records: records})
}

func (p *Publisher) WriteMovement(ctx context.Context, rid string, rows []movement.Row) error {
	return p.publish(ctx, emit.StreamMovement, MovementMessage{RID: rid, Rows: rows})
}
