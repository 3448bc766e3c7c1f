package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ecommerce-core/internal/domain"
)

// FileStore keeps the snapshot document in a single JSON file. Writes go to a
// temporary file in the same directory followed by an atomic rename, so a
// crash mid-write never corrupts the durable snapshot.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(emptyDocument()); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) LoadCatalog() (map[string]domain.Category, map[string]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, nil, err
	}
	categories := make(map[string]domain.Category, len(doc.Categories))
	for id, r := range doc.Categories {
		categories[id] = decodeCategory(r)
	}
	products := make(map[string]domain.Product, len(doc.Products))
	for id, r := range doc.Products {
		p, err := decodeProduct(r)
		if err != nil {
			return nil, nil, err
		}
		products[id] = p
	}
	return categories, products, nil
}

func (s *FileStore) LoadOrders(products map[string]domain.Product) (map[string]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	orders := make(map[string]domain.Order, len(doc.Orders))
	for id, r := range doc.Orders {
		o, err := decodeOrder(r, products)
		if err != nil {
			return nil, err
		}
		orders[id] = o
	}
	return orders, nil
}

func (s *FileStore) LoadUsers() (map[string]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	users := make(map[string]domain.User, len(doc.Users))
	for username, r := range doc.Users {
		users[username] = decodeUser(r)
	}
	return users, nil
}

func (s *FileStore) PersistCatalog(categories map[string]domain.Category, products map[string]domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Categories = encodeCategories(categories)
	doc.Products = encodeProducts(products)
	return s.write(doc)
}

func (s *FileStore) PersistOrders(orders map[string]domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Orders = encodeOrders(orders)
	return s.write(doc)
}

func (s *FileStore) PersistUsers(users map[string]domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Users = encodeUsers(users)
	return s.write(doc)
}

func (s *FileStore) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return document{}, fmt.Errorf("read snapshot: %w", err)
	}
	doc := emptyDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc, nil
}

func (s *FileStore) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
