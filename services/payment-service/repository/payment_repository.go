package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/storefront/services/payment-service/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("payment not found")

// PaymentRepository defines data-access operations for the payment ledger.
type PaymentRepository interface {
	// RecordTransition inserts or advances the row keyed by p.SessionID and
	// returns the row as stored. Terminal rows are returned unchanged.
	RecordTransition(ctx context.Context, p *models.Payment) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
}

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) RecordTransition(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	var stored models.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", p.SessionID).
			First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if p.ID == uuid.Nil {
				p.ID = uuid.New()
			}
			if err := tx.Create(p).Error; err != nil {
				return err
			}
			stored = *p
			return nil
		}
		if err != nil {
			return err
		}

		if models.IsTerminal(stored.Status) || stored.Status == p.Status {
			return nil
		}

		updates := map[string]interface{}{
			"status":          p.Status,
			"stripe_event_id": p.StripeEventID,
			"succeeded_at":    p.SucceededAt,
			"failed_at":       p.FailedAt,
		}
		if p.Amount > 0 {
			updates["amount"] = p.Amount
		}
		if err := tx.Model(&stored).Updates(updates).Error; err != nil {
			return err
		}
		stored.Status = p.Status
		stored.StripeEventID = p.StripeEventID
		stored.SucceededAt = p.SucceededAt
		stored.FailedAt = p.FailedAt
		if p.Amount > 0 {
			stored.Amount = p.Amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindByOrderID returns the most recent ledger row for the order.
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("published_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
