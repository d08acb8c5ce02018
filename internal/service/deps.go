package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/referral"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
	"github.com/levelupgamer/levelup_shop/pkg/mykafka"
)

type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type ReferralGraph interface {
	RecordReferral(ctx context.Context, referrer, referee referral.Customer) error
	Referrals(ctx context.Context, referrerID string) ([]referral.Customer, error)
}

func publish(ctx context.Context, pub mykafka.Publisher, topic, key string, event map[string]any) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
