// Package store persists profiles, overlays, follow edges, friend requests,
// friendships and content rows on gorm.
//
// Reads are routed to replicas and writes to the master through dbresolver.
// A transaction started with RunInTransaction travels in the context: every
// Store method called with that context runs on the transaction handle.
package store

import (
	"context"

	"fitsocial/db"

	"gorm.io/gorm"
)

type txKey struct{}

type Store struct {
	orm           *gorm.DB
	transactional bool
}

func New(orm *gorm.DB, transactional bool) *Store {
	return &Store{orm: orm, transactional: transactional}
}

// SupportsTransactions reports whether RunInTransaction gives all-or-nothing
// semantics. When false the callback runs directly against the store.
func (s *Store) SupportsTransactions() bool {
	return s.transactional
}

// RunInTransaction runs fn inside one store transaction. Nested calls reuse
// the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactional {
		return fn(ctx)
	}
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (s *Store) reader(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.GetReadOnlyDB(ctx, s.orm)
}

func (s *Store) writer(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.GetWriteDB(ctx, s.orm)
}

// primary reads from the master; used where a read must observe a write that
// was just made outside a transaction.
func (s *Store) primary(ctx context.Context) *gorm.DB {
	return s.writer(ctx)
}
