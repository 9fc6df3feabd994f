package drafts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/identity"
)

// Record is the persisted draft row.
type Record struct {
	bun.BaseModel `bun:"table:capsulo_drafts,alias:d"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	DocumentKey string    `bun:"document_key,notnull,unique" json:"document_key"`
	Payload     string    `bun:"payload,notnull" json:"payload"`
	Revision    int       `bun:"revision,notnull,default:0" json:"revision"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewRecordRepository builds the go-repository-bun repository for drafts.
// Rows are identified by document key.
func NewRecordRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord:          func() *Record { return &Record{} },
		GetID:              func(r *Record) uuid.UUID { return r.ID },
		SetID:              func(r *Record, id uuid.UUID) { r.ID = id },
		GetIdentifier:      func() string { return "document_key" },
		GetIdentifierValue: func(r *Record) string { return r.DocumentKey },
	})
}

// BunStore persists drafts in SQL through go-repository-bun, optionally
// behind a go-repository-cache read cache.
type BunStore struct {
	repo  repository.Repository[*Record]
	clock func() time.Time
	mu    sync.Mutex
	*broadcaster
}

var (
	_ Store  = (*BunStore)(nil)
	_ Lister = (*BunStore)(nil)
)

// NewBunStore returns an uncached store.
func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache wraps the repository with the cache when both the
// service and the serializer are provided.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunStore {
	base := NewRecordRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunStore{repo: base, clock: time.Now, broadcaster: newBroadcaster()}
}

// CreateSchema creates the drafts table when missing.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx)
	return err
}

// OpenDB opens a bun database for dialect ("sqlite" or "postgres").
func OpenDB(dialect, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "", "sqlite":
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, err
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		db.SetMaxOpenConns(1)
		return db, nil
	case "postgres":
		sqlDB, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("drafts: unsupported dialect %q", dialect)
	}
}

func (s *BunStore) Get(ctx context.Context, key string) (*content.Document, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	record, err := s.find(ctx, key)
	if err != nil || record == nil {
		return nil, err
	}
	return decode(key, []byte(record.Payload))
}

func (s *BunStore) Set(ctx context.Context, key string, doc *content.Document) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	raw, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.find(ctx, key)
	if err != nil {
		return err
	}
	now := s.clock().UTC()
	if existing == nil {
		_, err = s.repo.Create(ctx, &Record{
			ID:          identity.DraftUUID(key),
			DocumentKey: key,
			Payload:     string(raw),
			Revision:    1,
			UpdatedAt:   now,
		})
	} else {
		existing.Payload = string(raw)
		existing.Revision++
		existing.UpdatedAt = now
		_, err = s.repo.Update(ctx, existing)
	}
	if err != nil {
		return fmt.Errorf("drafts: persist %s: %w", key, err)
	}
	s.publish(key, ActionSet)
	return nil
}

func (s *BunStore) Delete(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.find(ctx, key)
	if err != nil || existing == nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing); err != nil {
		return fmt.Errorf("drafts: delete %s: %w", key, err)
	}
	s.publish(key, ActionDelete)
	return nil
}

func (s *BunStore) Keys(ctx context.Context) ([]string, error) {
	records, _, err := s.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("document_key ASC")
	}))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.DocumentKey)
	}
	return keys, nil
}

// Revision returns the number of writes recorded for key, 0 when absent.
func (s *BunStore) Revision(ctx context.Context, key string) (int, error) {
	record, err := s.find(ctx, key)
	if err != nil || record == nil {
		return 0, err
	}
	return record.Revision, nil
}

func (s *BunStore) find(ctx context.Context, key string) (*Record, error) {
	record, err := s.repo.GetByID(ctx, identity.DraftUUID(key).String())
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("drafts: load %s: %w", key, err)
	}
	return record, nil
}
