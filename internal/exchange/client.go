// Package exchange shares database snapshots between coda users through
// Redis. A snapshot is the tabular text of a store plus a digest; publishing
// one overwrites the project's previous snapshot and announces it on a
// Pub/Sub channel.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dyluth/coda/internal/logging"
	"github.com/dyluth/coda/pkg/datastore"
	"github.com/redis/go-redis/v9"
)

// Client provides namespaced Redis operations for snapshots.
// It is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	namespace string
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient creates a client whose keys and channels live under namespace.
// Returns an error if namespace is empty.
func NewClient(redisOpts *redis.Options, namespace string, logger *slog.Logger) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
		logger:    logging.Component(logger, "exchange"),
		now:       time.Now,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client.
func NewClientFromURL(url, namespace string, logger *slog.Logger) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewClient(opts, namespace, logger)
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Publish serializes store, writes it as project's snapshot and publishes
// the snapshot metadata to the events channel. The store's changed flag is
// left alone; publishing is not a save.
func (c *Client) Publish(ctx context.Context, project string, store *datastore.Store) (*Snapshot, error) {
	if project == "" {
		return nil, fmt.Errorf("project name cannot be empty")
	}

	snap, err := NewSnapshot(project, store, c.now().UnixMilli())
	if err != nil {
		return nil, err
	}

	key := SnapshotKey(c.namespace, project)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, SnapshotToHash(snap))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to write snapshot to Redis: %w", err)
	}

	event, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot event: %w", err)
	}
	if err := c.rdb.Publish(ctx, SnapshotEventsChannel(c.namespace), event).Err(); err != nil {
		return nil, fmt.Errorf("failed to publish snapshot event: %w", err)
	}

	c.logger.Info("published snapshot", "project", project, "digest", snap.Digest, "columns", snap.Columns, "cells", snap.Cells)
	return snap, nil
}

// Fetch retrieves project's snapshot, verifies its digest and loads it.
// Returns redis.Nil if no snapshot exists; use IsNotFound to check.
func (c *Client) Fetch(ctx context.Context, project string) (*datastore.Store, *Snapshot, error) {
	snap, err := c.GetSnapshot(ctx, project)
	if err != nil {
		return nil, nil, err
	}

	store, err := snap.Store()
	if err != nil {
		c.logger.Warn("rejected snapshot", "project", project, "error", err)
		return nil, nil, err
	}
	return store, snap, nil
}

// GetSnapshot reads the raw snapshot without loading it.
// Returns (nil, redis.Nil) if it doesn't exist.
func (c *Client) GetSnapshot(ctx context.Context, project string) (*Snapshot, error) {
	hashData, err := c.rdb.HGetAll(ctx, SnapshotKey(c.namespace, project)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	snap, err := HashToSnapshot(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}
	return snap, nil
}

// Subscription is an active subscription to snapshot events. Events carry
// metadata only; call Fetch for the data. Close when done.
type Subscription struct {
	events <-chan *Snapshot
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of snapshot announcements. It is closed when
// the subscription is closed or its context is cancelled.
func (s *Subscription) Events() <-chan *Snapshot {
	return s.events
}

// Errors returns malformed-message errors. The subscription continues after
// an error.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens for snapshot events in this namespace. It returns once
// Redis has confirmed the subscription.
//
// Delivery is at-most-once: a slow subscriber may miss events.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, SnapshotEventsChannel(c.namespace))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to snapshot events: %w", err)
	}

	eventsChan := make(chan *Snapshot, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var snap Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal snapshot event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &snap:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound reports whether err means the snapshot does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
