package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ecommerce-core/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps the snapshot document in Postgres, one JSONB row per
// top-level collection. Each persist replaces its sections inside a single
// transaction, which gives the same atomic whole-collection semantics as the
// file backend.
type PGStore struct {
	pool *pgxpool.Pool
	ctx  context.Context
}

// NewPGStore wraps a pgx pool. ctx scopes every query the store issues; the
// core itself has no cancellation semantics, so callers typically pass the
// process context.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, ctx: ctx}
}

func (s *PGStore) LoadCatalog() (map[string]domain.Category, map[string]domain.Product, error) {
	var categoryRecords map[string]categoryRecord
	if err := s.loadSection("categories", &categoryRecords); err != nil {
		return nil, nil, err
	}
	var productRecords map[string]productRecord
	if err := s.loadSection("products", &productRecords); err != nil {
		return nil, nil, err
	}
	categories := make(map[string]domain.Category, len(categoryRecords))
	for id, r := range categoryRecords {
		categories[id] = decodeCategory(r)
	}
	products := make(map[string]domain.Product, len(productRecords))
	for id, r := range productRecords {
		p, err := decodeProduct(r)
		if err != nil {
			return nil, nil, err
		}
		products[id] = p
	}
	return categories, products, nil
}

func (s *PGStore) LoadOrders(products map[string]domain.Product) (map[string]domain.Order, error) {
	var records map[string]orderRecord
	if err := s.loadSection("orders", &records); err != nil {
		return nil, err
	}
	orders := make(map[string]domain.Order, len(records))
	for id, r := range records {
		o, err := decodeOrder(r, products)
		if err != nil {
			return nil, err
		}
		orders[id] = o
	}
	return orders, nil
}

func (s *PGStore) LoadUsers() (map[string]domain.User, error) {
	var records map[string]userRecord
	if err := s.loadSection("users", &records); err != nil {
		return nil, err
	}
	users := make(map[string]domain.User, len(records))
	for username, r := range records {
		users[username] = decodeUser(r)
	}
	return users, nil
}

func (s *PGStore) PersistCatalog(categories map[string]domain.Category, products map[string]domain.Product) error {
	return s.replaceSections(map[string]interface{}{
		"categories": encodeCategories(categories),
		"products":   encodeProducts(products),
	})
}

func (s *PGStore) PersistOrders(orders map[string]domain.Order) error {
	return s.replaceSections(map[string]interface{}{
		"orders": encodeOrders(orders),
	})
}

func (s *PGStore) PersistUsers(users map[string]domain.User) error {
	return s.replaceSections(map[string]interface{}{
		"users": encodeUsers(users),
	})
}

func (s *PGStore) loadSection(section string, out interface{}) error {
	const q = `SELECT doc FROM snapshots WHERE section = $1`
	var data []byte
	err := s.pool.QueryRow(s.ctx, q, section).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot section %s: %w", section, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode snapshot section %s: %w", section, err)
	}
	return nil
}

func (s *PGStore) replaceSections(sections map[string]interface{}) error {
	tx, err := s.pool.Begin(s.ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(s.ctx)

	const q = `
INSERT INTO snapshots (section, doc, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (section) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
`
	for section, payload := range sections {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode snapshot section %s: %w", section, err)
		}
		if _, err := tx.Exec(s.ctx, q, section, data); err != nil {
			return fmt.Errorf("persist snapshot section %s: %w", section, err)
		}
	}
	return tx.Commit(s.ctx)
}
