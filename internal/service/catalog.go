package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/repo"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
	"github.com/levelupgamer/levelup_shop/pkg/mykafka"
)

type CatalogService struct {
	Repo    *repo.GormRepo
	Events  mykafka.Publisher
	Indexer ProductIndexer
}

type ProductInput struct {
	Code        string
	Category    string
	Name        string
	Description string
	Price       decimal.Decimal
	Images      []string
	Stock       int
}

// ProductUpdate carries the editable product fields. Nil means untouched.
type ProductUpdate struct {
	Name        *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	Description *string
	Code        *string
	Images      []string
}

func validatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return validation("price must be greater than 0")
	}
	return nil
}

func validateStock(n int) error {
	if n < 0 {
		return validation("stock cannot be negative")
	}
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p Principal, in ProductInput) (*models.Product, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, validation("name is required")
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err := validateStock(in.Stock); err != nil {
		return nil, err
	}

	prod := &models.Product{
		Code:        strings.TrimSpace(in.Code),
		Category:    strings.TrimSpace(in.Category),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Images:      pq.StringArray(in.Images),
		Stock:       in.Stock,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.index(ctx, prod)
	publish(ctx, s.Events, mykafka.TopicProducts, prod.ID.String(), map[string]any{
		"type":      "product_created",
		"productID": prod.ID.String(),
		"name":      prod.Name,
	})
	return prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p Principal, id uuid.UUID, in ProductUpdate) (*models.Product, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, validation("name is required")
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		updates["price"] = *in.Price
	}
	if in.Stock != nil {
		if err := validateStock(*in.Stock); err != nil {
			return nil, err
		}
		updates["stock"] = *in.Stock
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Code != nil {
		updates["code"] = strings.TrimSpace(*in.Code)
	}
	if in.Images != nil {
		updates["images"] = pq.StringArray(in.Images)
	}

	prod, err := s.Repo.UpdateProduct(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.index(ctx, prod)
	publish(ctx, s.Events, mykafka.TopicProducts, prod.ID.String(), map[string]any{
		"type":      "product_updated",
		"productID": prod.ID.String(),
		"name":      prod.Name,
	})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, p Principal, id uuid.UUID) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("unindex_product_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicProducts, id.String(), map[string]any{
		"type":      "product_deleted",
		"productID": id.String(),
	})
	return nil
}

func (s *CatalogService) AddReview(ctx context.Context, p Principal, productID uuid.UUID, rating int, comment string) (*models.Product, error) {
	if rating < 1 || rating > 5 {
		return nil, validation("rating must be between 1 and 5")
	}
	return s.Repo.AddReview(ctx, &models.Review{
		ProductID: productID,
		UserID:    p.UserID,
		Username:  p.Username,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	})
}

// Reindex pushes the whole catalog to the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Indexer == nil {
		return 0, nil
	}
	items, err := s.Repo.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := s.Indexer.IndexProduct(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func (s *CatalogService) index(ctx context.Context, prod *models.Product) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Warn("index_product_failed", "product_id", prod.ID, "error", err)
	}
}
