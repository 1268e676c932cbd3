// Package boltstore persists flattened bundles into an embedded bolt
// database: one bucket of nodes keyed by identifier, one bucket of edges.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/threatgraph/sandstix/graph"
)

const (
	nodeBucket = "nodes"
	edgeBucket = "edges"
)

// Store is a bolt-backed graph sink.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path and initializes the buckets.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &graph.SinkError{Backend: "bolt", Op: "open", Cause: err}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{nodeBucket, edgeBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, &graph.SinkError{Backend: "bolt", Op: "init", Cause: err}
	}
	return &Store{db: db}, nil
}

// Upsert writes every node and edge in one transaction. Keys are the
// content-derived identifiers, so rewriting a bundle overwrites each record
// with identical bytes.
func (s *Store) Upsert(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		nb := tx.Bucket([]byte(nodeBucket))
		for _, node := range nodes {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(node)
			if err != nil {
				return fmt.Errorf("marshaling node %s: %w", node.ID, err)
			}
			if err := nb.Put([]byte(node.ID), data); err != nil {
				return fmt.Errorf("writing node %s: %w", node.ID, err)
			}
		}
		eb := tx.Bucket([]byte(edgeBucket))
		for _, edge := range edges {
			data, err := json.Marshal(edge)
			if err != nil {
				return fmt.Errorf("marshaling edge %s: %w", edge.ID, err)
			}
			if err := eb.Put([]byte(edge.ID), data); err != nil {
				return fmt.Errorf("writing edge %s: %w", edge.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return &graph.SinkError{Backend: "bolt", Op: "upsert", Cause: err}
	}
	return nil
}

// Node reads one stored node back by identifier.
func (s *Store) Node(id string) (graph.Node, bool, error) {
	var node graph.Node
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(nodeBucket)).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &node)
	})
	if err != nil {
		return graph.Node{}, false, &graph.SinkError{Backend: "bolt", Op: "read", Cause: err}
	}
	return node, found, nil
}

// Counts returns the number of stored nodes and edges.
func (s *Store) Counts() (nodes, edges int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		nodes = tx.Bucket([]byte(nodeBucket)).Stats().KeyN
		edges = tx.Bucket([]byte(edgeBucket)).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, 0, &graph.SinkError{Backend: "bolt", Op: "stats", Cause: err}
	}
	return nodes, edges, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
