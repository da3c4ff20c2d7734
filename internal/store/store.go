// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store wraps a goleveldb database with a tree-per-concern
// layout: each logical bucket (blocks, headers, chain metadata, node
// identity, peer memory, dial-tracker snapshots) lives under its own
// key prefix, with a Batch applied through Commit for atomic multi-key
// writes.
package store

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/visionchain/visiond/internal/verrors"
)

// Store is a tree-per-concern wrapper over a single goleveldb handle.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) the leveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, verrors.Fatal("store_open_failed", "failed to open chain database", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tree names the logical buckets this node persists. Each tree's keys
// are namespaced with its prefix so a single goleveldb instance can
// stand in for the "KV store with trees" external dependency assumed
// by the rest of the system.
type Tree string

// Tree name constants.
const (
	TreeBlocks      Tree = "blocks"
	TreeHeaders     Tree = "headers"
	TreeNonces      Tree = "nonces"
	TreeChainMeta   Tree = "chain-meta"
	TreeIdentity    Tree = "node_identity_ed25519_keypair"
	TreePeerMemory  Tree = "constellation_memory"
	TreeDialTracker Tree = "dial_tracker"
)

func (t Tree) key(k []byte) []byte {
	out := make([]byte, 0, len(t)+1+len(k))
	out = append(out, t...)
	out = append(out, ':')
	out = append(out, k...)
	return out
}

// Get returns the value stored at key k within tree t.
func (s *Store) Get(t Tree, k []byte) ([]byte, error) {
	v, err := s.db.Get(t.key(k), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, verrors.Transient("store_get_failed", err.Error())
	}
	return v, nil
}

// Put writes value v at key k within tree t.
func (s *Store) Put(t Tree, k, v []byte) error {
	if err := s.db.Put(t.key(k), v, nil); err != nil {
		return verrors.Transient("store_put_failed", err.Error())
	}
	return nil
}

// Delete removes key k within tree t.
func (s *Store) Delete(t Tree, k []byte) error {
	if err := s.db.Delete(t.key(k), nil); err != nil {
		return verrors.Transient("store_delete_failed", err.Error())
	}
	return nil
}

// Iterate calls fn for every key/value pair in tree t, in key order,
// stopping early if fn returns false.
func (s *Store) Iterate(t Tree, fn func(key, value []byte) bool) error {
	prefix := append([]byte(t), ':')
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()[len(prefix):]
		if !fn(append([]byte(nil), key...), append([]byte(nil), iter.Value()...)) {
			break
		}
	}
	return iter.Error()
}

// Batch accumulates writes across one or more trees for atomic commit.
type Batch struct {
	b *leveldb.Batch
}

// NewBatch returns an empty batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{b: new(leveldb.Batch)}
}

// Put stages a write of value v at key k within tree t.
func (batch *Batch) Put(t Tree, k, v []byte) {
	batch.b.Put(t.key(k), v)
}

// Delete stages a deletion of key k within tree t.
func (batch *Batch) Delete(t Tree, k []byte) {
	batch.b.Delete(t.key(k))
}

// Commit atomically applies every staged write in the batch.
func (s *Store) Commit(batch *Batch) error {
	if err := s.db.Write(batch.b, nil); err != nil {
		return verrors.Transient("store_commit_failed", err.Error())
	}
	return nil
}
