package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/repo"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
	"github.com/levelupgamer/levelup_shop/pkg/mykafka"
)

// StatusPolicy decides which admin status changes are accepted.
type StatusPolicy string

const (
	// PolicyPermissive accepts any known status from any state.
	PolicyPermissive StatusPolicy = "permissive"
	// PolicyStrict only follows the order lifecycle table.
	PolicyStrict StatusPolicy = "strict"
)

func ParseStatusPolicy(v string) (StatusPolicy, error) {
	switch StatusPolicy(strings.ToLower(strings.TrimSpace(v))) {
	case "", PolicyPermissive:
		return PolicyPermissive, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown order status policy %q", v)
}

type OrderService struct {
	Repo    *repo.GormRepo
	Events  mykafka.Publisher
	Policy  StatusPolicy
	Indexer ProductIndexer
}

type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

func (s *OrderService) PlaceOrder(ctx context.Context, p Principal, items []CartLine, shippingAddress string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	if len(items) == 0 {
		return nil, validation("cart is empty")
	}
	lines := make([]repo.OrderLine, 0, len(items))
	for _, it := range items {
		if it.ProductID == uuid.Nil {
			return nil, validation("product id required")
		}
		if it.Quantity < 1 {
			return nil, validation("quantity must be at least 1")
		}
		lines = append(lines, repo.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	address, err := s.shippingAddress(ctx, p, shippingAddress)
	if err != nil {
		return nil, err
	}

	order, err := s.Repo.PlaceOrder(ctx, p.UserID, lines, address, models.OrderStatusPaid)
	if err != nil {
		return nil, err
	}

	l.Info("order_placed", "order_id", order.ID, "total", order.Total.String(), "items", len(order.Items))
	s.reindex(ctx, order.Items)
	publish(ctx, s.Events, mykafka.TopicOrders, order.ID.String(), map[string]any{
		"type":    "order_placed",
		"orderID": order.ID.String(),
		"userID":  p.UserID.String(),
		"total":   order.Total.String(),
	})
	return order, nil
}

// shippingAddress falls back to the caller's first saved address.
func (s *OrderService) shippingAddress(ctx context.Context, p Principal, given string) (string, error) {
	if v := strings.TrimSpace(given); v != "" {
		return v, nil
	}
	u, err := s.Repo.UserByID(ctx, p.UserID)
	if err != nil {
		return "", err
	}
	if len(u.Addresses) == 0 {
		return "", validation("shipping address is required")
	}
	return u.Addresses[0].Line(), nil
}

func (s *OrderService) ListMine(ctx context.Context, p Principal) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, p.UserID)
}

func (s *OrderService) ListAll(ctx context.Context, p Principal) ([]models.Order, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.Repo.ListAllOrders(ctx)
}

func (s *OrderService) SetStatus(ctx context.Context, p Principal, id uuid.UUID, status string) (*models.Order, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	next := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, validation("unknown order status %q", status)
	}

	// Only the strict lifecycle moves stock; permissive changes are labels.
	restock := s.Policy == PolicyStrict

	var from models.OrderStatus
	order, err := s.Repo.UpdateOrderStatus(ctx, id, next, restock, func(o *models.Order) error {
		from = o.Status
		if s.Policy == PolicyStrict && !o.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, next)
		}
		return nil
	})
	if errors.Is(err, repo.ErrStale) {
		return nil, fmt.Errorf("%w: order was updated concurrently, retry", ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	if restock && next == models.OrderStatusCancelled && from.Reserved() {
		s.reindex(ctx, order.Items)
	}
	if from != next {
		publish(ctx, s.Events, mykafka.TopicOrders, order.ID.String(), map[string]any{
			"type":    "order_status_changed",
			"orderID": order.ID.String(),
			"from":    string(from),
			"to":      string(next),
		})
	}
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, p Principal, id uuid.UUID) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.Events, mykafka.TopicOrders, id.String(), map[string]any{
		"type":    "order_deleted",
		"orderID": id.String(),
	})
	return nil
}

// reindex refreshes the search documents of products whose stock moved.
func (s *OrderService) reindex(ctx context.Context, items []models.OrderItem) {
	if s.Indexer == nil {
		return
	}
	l := logging.FromContext(ctx)
	for _, it := range items {
		prod, err := s.Repo.GetProduct(ctx, it.ProductID)
		if err != nil {
			l.Warn("reindex_product_failed", "product_id", it.ProductID, "error", err)
			continue
		}
		if err := s.Indexer.IndexProduct(ctx, prod); err != nil {
			l.Warn("index_product_failed", "product_id", prod.ID, "error", err)
		}
	}
}
