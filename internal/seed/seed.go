// Package seed bootstraps a freshly created platform with a default admin, a
// demo customer, and a small demo catalog. It is idempotent: existing users
// and a non-empty catalog are left alone.
package seed

import (
	"errors"
	"fmt"

	"ecommerce-core/internal/auth"
	"ecommerce-core/internal/catalog"
	"ecommerce-core/internal/domain"
	"ecommerce-core/internal/platform"
	"github.com/shopspring/decimal"
)

type productSeed struct {
	Name        string
	Description string
	Price       string
	Stock       int
}

// Apply ensures the default users and demo catalog exist.
func Apply(p *platform.Platform) error {
	admin, err := EnsureDefaultUsers(p)
	if err != nil {
		return err
	}

	if len(p.ListCategories()) > 0 {
		return nil
	}

	category, err := p.CreateCategory("Demo", "Demo products for manual testing", admin)
	if err != nil {
		return fmt.Errorf("create demo category: %w", err)
	}

	products := []productSeed{
		{Name: "Demo T-Shirt", Description: "Soft cotton tee for demo purposes", Price: "19.99", Stock: 25},
		{Name: "Demo Mug", Description: "Ceramic mug with demo logo", Price: "12.99", Stock: 40},
	}
	for _, seed := range products {
		price, err := decimal.NewFromString(seed.Price)
		if err != nil {
			return fmt.Errorf("parse price for %s: %w", seed.Name, err)
		}
		if _, err := p.AddProduct(catalog.AddProductInput{
			Name:        seed.Name,
			Description: seed.Description,
			Price:       price,
			Stock:       seed.Stock,
			CategoryID:  category.ID,
		}, admin); err != nil {
			return fmt.Errorf("add product %s: %w", seed.Name, err)
		}
	}
	return nil
}

// EnsureDefaultUsers creates the bootstrap admin and demo customer if they do
// not exist yet, returning the admin.
func EnsureDefaultUsers(p *platform.Platform) (domain.User, error) {
	admin, err := ensureUser(p.Auth(), auth.RegisterInput{
		Username: "admin",
		FullName: "Admin User",
		Password: "admin123",
		Role:     domain.RoleAdmin,
	}, nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("ensure admin: %w", err)
	}

	if _, err := ensureUser(p.Auth(), auth.RegisterInput{
		Username: "alice",
		FullName: "Alice Customer",
		Password: "password",
		Role:     domain.RoleCustomer,
	}, &admin); err != nil {
		return domain.User{}, fmt.Errorf("ensure demo customer: %w", err)
	}
	return admin, nil
}

func ensureUser(authSvc *auth.Service, in auth.RegisterInput, actingUser *domain.User) (domain.User, error) {
	existing, err := authSvc.User(in.Username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}
	return authSvc.Register(in, actingUser)
}
