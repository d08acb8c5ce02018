package referral

import (
	"context"
	"fmt"
)

// Customer is a node of the referral network.
type Customer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

const (
	constraintCypher = `CREATE CONSTRAINT customer_id IF NOT EXISTS FOR (c:Customer) REQUIRE c.id IS UNIQUE`

	recordCypher = `
MERGE (r:Customer {id: $referrerId}) SET r.username = $referrerUsername
MERGE (u:Customer {id: $refereeId}) SET u.username = $refereeUsername
MERGE (r)-[:REFERRED]->(u)`

	referralsCypher = `
MATCH (:Customer {id: $referrerId})-[:REFERRED]->(u:Customer)
RETURN u.id AS id, u.username AS username
ORDER BY u.username`
)

// Graph stores who referred whom.
type Graph struct {
	client Client
}

func NewGraph(client Client) *Graph {
	return &Graph{client: client}
}

func (g *Graph) EnsureSchema(ctx context.Context) error {
	if _, err := g.client.ExecuteWrite(ctx, constraintCypher, nil); err != nil {
		return fmt.Errorf("create referral constraint: %w", err)
	}
	return nil
}

func (g *Graph) RecordReferral(ctx context.Context, referrer, referee Customer) error {
	_, err := g.client.ExecuteWrite(ctx, recordCypher, map[string]any{
		"referrerId":       referrer.ID,
		"referrerUsername": referrer.Username,
		"refereeId":        referee.ID,
		"refereeUsername":  referee.Username,
	})
	if err != nil {
		return fmt.Errorf("record referral: %w", err)
	}
	return nil
}

func (g *Graph) Referrals(ctx context.Context, referrerID string) ([]Customer, error) {
	res, err := g.client.ExecuteRead(ctx, referralsCypher, map[string]any{"referrerId": referrerID})
	if err != nil {
		return nil, fmt.Errorf("read referrals: %w", err)
	}

	out := make([]Customer, 0, len(res.Records))
	for _, rec := range res.Records {
		id, _ := rec["id"].(string)
		username, _ := rec["username"].(string)
		out = append(out, Customer{ID: id, Username: username})
	}
	return out, nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.client.Close(ctx)
}
