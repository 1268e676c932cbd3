// Package redisstore persists flattened bundles into Redis: one hash per
// node, one hash per edge, plus per-node adjacency sets for traversal.
package redisstore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threatgraph/sandstix/graph"
)

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration
}

// Store is a Redis-backed graph sink.
type Store struct {
	client *redis.Client
}

// Open connects to Redis and verifies the connection with a ping.
func Open(opts Options) (*Store, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, &graph.SinkError{Backend: "redis", Op: "parse-url", Cause: err}
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &graph.SinkError{Backend: "redis", Op: "connect", Cause: err}
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func nodeKey(id string) string { return "stix:node:" + id }
func edgeKey(id string) string { return "stix:edge:" + id }
func outKey(id string) string  { return "stix:out:" + id }
func inKey(id string) string   { return "stix:in:" + id }

// Upsert writes nodes and edges in one pipeline. Content-derived keys make
// repeated writes overwrite identical data.
func (s *Store) Upsert(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error {
	pipe := s.client.Pipeline()

	for _, node := range nodes {
		props, err := json.Marshal(node.Props)
		if err != nil {
			return &graph.SinkError{Backend: "redis", Op: "upsert",
				Cause: fmt.Errorf("marshaling node %s: %w", node.ID, err)}
		}
		pipe.HSet(ctx, nodeKey(node.ID), "type", node.Type, "props", string(props))
		pipe.SAdd(ctx, "stix:nodes", node.ID)
	}
	for _, edge := range edges {
		pipe.HSet(ctx, edgeKey(edge.ID),
			"type", edge.Type,
			"source_ref", edge.SourceRef,
			"target_ref", edge.TargetRef)
		pipe.SAdd(ctx, "stix:edges", edge.ID)
		pipe.SAdd(ctx, outKey(edge.SourceRef), edge.ID)
		pipe.SAdd(ctx, inKey(edge.TargetRef), edge.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return &graph.SinkError{Backend: "redis", Op: "upsert", Cause: err}
	}
	return nil
}

// Node reads one stored node back by identifier.
func (s *Store) Node(ctx context.Context, id string) (graph.Node, bool, error) {
	fields, err := s.client.HGetAll(ctx, nodeKey(id)).Result()
	if err != nil {
		return graph.Node{}, false, &graph.SinkError{Backend: "redis", Op: "read", Cause: err}
	}
	if len(fields) == 0 {
		return graph.Node{}, false, nil
	}
	node := graph.Node{ID: id, Type: fields["type"]}
	if raw := fields["props"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &node.Props); err != nil {
			return graph.Node{}, false, &graph.SinkError{Backend: "redis", Op: "read",
				Cause: fmt.Errorf("decoding node %s: %w", id, err)}
		}
	}
	return node, true, nil
}

// Outgoing returns the identifiers of edges leaving the given node.
func (s *Store) Outgoing(ctx context.Context, id string) ([]string, error) {
	members, err := s.client.SMembers(ctx, outKey(id)).Result()
	if err != nil {
		return nil, &graph.SinkError{Backend: "redis", Op: "read", Cause: err}
	}
	return members, nil
}

// Counts returns the number of stored nodes and edges.
func (s *Store) Counts(ctx context.Context) (nodes, edges int64, err error) {
	nodes, err = s.client.SCard(ctx, "stix:nodes").Result()
	if err != nil {
		return 0, 0, &graph.SinkError{Backend: "redis", Op: "stats", Cause: err}
	}
	edges, err = s.client.SCard(ctx, "stix:edges").Result()
	if err != nil {
		return 0, 0, &graph.SinkError{Backend: "redis", Op: "stats", Cause: err}
	}
	return nodes, edges, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
