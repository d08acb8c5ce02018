package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/referral"
	"github.com/levelupgamer/levelup_shop/internal/repo"
	"github.com/levelupgamer/levelup_shop/internal/testdb"
)

var (
	testSecret = []byte("test-jwt-secret")
	fixedNow   = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
)

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := event.(map[string]any)
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: m})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		t, _ := e.Event["type"].(string)
		out = append(out, t)
	}
	return out
}

type memIndexer struct {
	mu   sync.Mutex
	docs map[uuid.UUID]models.Product
}

func newMemIndexer() *memIndexer {
	return &memIndexer{docs: map[uuid.UUID]models.Product{}}
}

func (m *memIndexer) IndexProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p.ID] = *p
	return nil
}

func (m *memIndexer) DeleteProduct(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

type fakeGraph struct {
	mu    sync.Mutex
	edges map[string][]referral.Customer
}

func (g *fakeGraph) RecordReferral(_ context.Context, referrer, referee referral.Customer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.edges == nil {
		g.edges = map[string][]referral.Customer{}
	}
	g.edges[referrer.ID] = append(g.edges[referrer.ID], referee)
	return nil
}

func (g *fakeGraph) Referrals(_ context.Context, referrerID string) ([]referral.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edges[referrerID], nil
}

type env struct {
	repo    *repo.GormRepo
	events  *recordingPublisher
	indexer *memIndexer
	graph   *fakeGraph
	auth    *AuthService
	catalog *CatalogService
	orders  *OrderService
	promo   *PromoService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	r := &repo.GormRepo{DB: testdb.Open(t)}
	events := &recordingPublisher{}
	idx := newMemIndexer()
	graph := &fakeGraph{}

	return &env{
		repo:    r,
		events:  events,
		indexer: idx,
		graph:   graph,
		auth: &AuthService{
			Repo:                 r,
			JWTSecret:            testSecret,
			InstitutionalDomains: []string{"duocuc.cl", "duoc.cl"},
			Events:               events,
			Graph:                graph,
			Now:                  func() time.Time { return fixedNow },
		},
		catalog: &CatalogService{Repo: r, Events: events, Indexer: idx},
		orders:  &OrderService{Repo: r, Events: events, Policy: PolicyPermissive, Indexer: idx},
		promo:   &PromoService{Repo: r},
	}
}

var admin = Principal{UserID: uuid.New(), Username: "admin", Role: models.RoleAdmin}

func (e *env) register(t *testing.T, username string) Principal {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "secret123",
		Birthdate: "1995-03-10",
	})
	require.NoError(t, err)
	return Principal{UserID: res.User.ID, Username: res.User.Username, Role: res.User.Role}
}

func (e *env) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := e.catalog.CreateProduct(context.Background(), admin, ProductInput{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T { return &v }
