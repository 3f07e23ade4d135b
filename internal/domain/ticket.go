package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type TicketCategory string

const (
	CategoryEntry        TicketCategory = "entry"
	CategoryGuidedTour   TicketCategory = "guided_tour"
	CategoryEvent        TicketCategory = "event"
	CategorySubscription TicketCategory = "subscription"
	CategoryGroup        TicketCategory = "group"
	CategoryDiscount     TicketCategory = "discount"
)

func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryEntry, CategoryGuidedTour, CategoryEvent, CategorySubscription, CategoryGroup, CategoryDiscount:
		return true
	}
	return false
}

const (
	MaxTicketPrice      = 1_000_000.0
	MaxValidityDays     = 365
	DefaultValidityDays = 30
)

type TicketDefinition struct {
	ID            uuid.UUID      `bson:"_id" json:"id"`
	Name          string         `bson:"name" json:"name"`
	Description   string         `bson:"description" json:"description"`
	Category      TicketCategory `bson:"category" json:"category"`
	Price         float64        `bson:"price" json:"price"`
	Stock         Stock          `bson:"stock" json:"stock"`
	Available     bool           `bson:"available" json:"available"`
	ValidityDays  int            `bson:"validity_days" json:"validityDays"`
	PurchaseCount int64          `bson:"purchase_count" json:"purchaseCount"`
	TotalRevenue  float64        `bson:"total_revenue" json:"totalRevenue"`
	CreatedAt     time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updated_at" json:"updatedAt"`
}

// NewTicketDefinition validates every field at construction time. The
// store never sees a ticket that violates an invariant.
func NewTicketDefinition(name, description string, category TicketCategory, price float64, stock Stock, validityDays int) (*TicketDefinition, error) {
	if name == "" || len(name) > 200 {
		return nil, errors.Wrap(ErrValidation, "name must be 1-200 characters")
	}
	if len(description) > 2000 {
		return nil, errors.Wrap(ErrValidation, "description must be at most 2000 characters")
	}
	if !category.Valid() {
		return nil, errors.Wrapf(ErrValidation, "unknown category %q", category)
	}
	if price < 0 || price > MaxTicketPrice {
		return nil, errors.Wrapf(ErrValidation, "price must be within [0, %v]", MaxTicketPrice)
	}
	if !stock.Unlimited && stock.Count < 0 {
		return nil, errors.Wrap(ErrValidation, "stock count must be >= 0")
	}
	if validityDays == 0 {
		validityDays = DefaultValidityDays
	}
	if validityDays < 1 || validityDays > MaxValidityDays {
		return nil, errors.Wrapf(ErrValidation, "validity days must be within [1, %d]", MaxValidityDays)
	}
	now := time.Now().UTC()
	return &TicketDefinition{
		ID:           uuid.New(),
		Name:         name,
		Description:  description,
		Category:     category,
		Price:        price,
		Stock:        stock,
		Available:    true,
		ValidityDays: validityDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Validate re-checks the construction invariants after a partial update.
func (t *TicketDefinition) Validate() error {
	_, err := NewTicketDefinition(t.Name, t.Description, t.Category, t.Price, t.Stock, t.ValidityDays)
	return err
}

// AvailableFor reports whether qty units of the ticket can be purchased
// right now. Pure predicate, no side effect.
func (t *TicketDefinition) AvailableFor(qty int64) bool {
	return t.Available && t.Stock.CanCover(qty)
}
