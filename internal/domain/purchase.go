package domain

import (
	"fmt"
	"math"
	"net/mail"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "pending"
	StatusConfirmed PurchaseStatus = "confirmed"
	StatusCancelled PurchaseStatus = "cancelled"
	StatusRefunded  PurchaseStatus = "refunded"
	StatusExpired   PurchaseStatus = "expired"
)

func (s PurchaseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRefunded, StatusExpired:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
	PaymentQR     PaymentMethod = "qr"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline, PaymentQR:
		return true
	}
	return false
}

// TaxRatePercent is the fixed tax applied to every purchase subtotal.
const TaxRatePercent = 18.0

// PurchaseValidityDays is the redemption window of a confirmed purchase.
const PurchaseValidityDays = 30

const maxLineQuantity = 100

// CustomerSnapshot is the customer profile captured at purchase time.
// Later edits to the user account do not alter historical orders.
type CustomerSnapshot struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

func (c CustomerSnapshot) Validate() error {
	if c.Name == "" || len(c.Name) > 200 {
		return errors.Wrap(ErrValidation, "customer name must be 1-200 characters")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return errors.Wrap(ErrValidation, "customer email is invalid")
	}
	return nil
}

// LineItem is one (ticket, quantity) entry with its price captured at
// purchase time.
type LineItem struct {
	TicketID   uuid.UUID `bson:"ticket_id" json:"ticketId"`
	TicketName string    `bson:"ticket_name" json:"ticketName"`
	Quantity   int64     `bson:"quantity" json:"quantity"`
	UnitPrice  float64   `bson:"unit_price" json:"unitPrice"`
	LineTotal  float64   `bson:"line_total" json:"lineTotal"`
}

// RequestMeta is optional metadata about the originating request.
type RequestMeta struct {
	OriginIP  string `bson:"origin_ip,omitempty" json:"originIp,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`
}

type PurchaseRecord struct {
	ID          uuid.UUID        `bson:"_id" json:"id"`
	UserID      uuid.UUID        `bson:"user_id" json:"userId"`
	Customer    CustomerSnapshot `bson:"customer" json:"customer"`
	Items       []LineItem       `bson:"items" json:"items"`
	Subtotal    float64          `bson:"subtotal" json:"subtotal"`
	Tax         float64          `bson:"tax" json:"tax"`
	Discount    float64          `bson:"discount" json:"discount"`
	Total       float64          `bson:"total" json:"total"`
	Status      PurchaseStatus   `bson:"status" json:"status"`
	Code        string           `bson:"code" json:"code"`
	QRCode      string           `bson:"qr_code,omitempty" json:"qrCode,omitempty"`
	PurchasedAt time.Time        `bson:"purchased_at" json:"purchasedAt"`
	ValidFrom   time.Time        `bson:"valid_from" json:"validFrom"`
	ValidUntil  time.Time        `bson:"valid_until" json:"validUntil"`
	Payment     PaymentMethod    `bson:"payment_method" json:"paymentMethod"`
	PaymentRef  string           `bson:"payment_ref,omitempty" json:"paymentRef,omitempty"`
	Notes       string           `bson:"notes,omitempty" json:"notes,omitempty"`
	Meta        RequestMeta      `bson:"meta,omitempty" json:"meta,omitempty"`
}

// NewLineItem captures a purchase line against a ticket definition at its
// current price.
func NewLineItem(t *TicketDefinition, qty int64) (LineItem, error) {
	if qty < 1 || qty > maxLineQuantity {
		return LineItem{}, errors.Wrapf(ErrValidation, "quantity must be within [1, %d]", maxLineQuantity)
	}
	return LineItem{
		TicketID:   t.ID,
		TicketName: t.Name,
		Quantity:   qty,
		UnitPrice:  t.Price,
		LineTotal:  round2(t.Price * float64(qty)),
	}, nil
}

// NewPurchaseRecord aggregates line items into a confirmed purchase.
// Totals are computed once here and never recomputed. The redemption
// code and QR encoding are assigned by the workflow before persistence.
func NewPurchaseRecord(userID uuid.UUID, customer CustomerSnapshot, items []LineItem, payment PaymentMethod, discount float64, notes string, meta RequestMeta) (*PurchaseRecord, error) {
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Wrap(ErrValidation, "purchase must contain at least one item")
	}
	if !payment.Valid() {
		return nil, errors.Wrapf(ErrValidation, "unknown payment method %q", payment)
	}
	if discount < 0 {
		return nil, errors.Wrap(ErrValidation, "discount must be >= 0")
	}

	var subtotal float64
	for _, it := range items {
		subtotal += it.LineTotal
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal * TaxRatePercent / 100)
	total := round2(subtotal + tax - discount)
	if total < 0 {
		return nil, errors.Wrap(ErrValidation, "discount exceeds subtotal plus tax")
	}

	now := time.Now().UTC()
	return &PurchaseRecord{
		ID:          uuid.New(),
		UserID:      userID,
		Customer:    customer,
		Items:       items,
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    discount,
		Total:       total,
		Status:      StatusConfirmed,
		PurchasedAt: now,
		ValidFrom:   now,
		ValidUntil:  now.AddDate(0, 0, PurchaseValidityDays),
		Payment:     payment,
		Notes:       notes,
		Meta:        meta,
	}, nil
}

// Cancel transitions a confirmed purchase to cancelled and appends the
// reason to its notes. Inventory release is the caller's responsibility.
func (p *PurchaseRecord) Cancel(reason string) error {
	if p.Status != StatusConfirmed {
		return errors.Wrapf(ErrInvalidState, "cannot cancel purchase in status %q", p.Status)
	}
	p.Status = StatusCancelled
	p.appendNote("cancelled", reason)
	return nil
}

// Refund transitions a confirmed or cancelled purchase to refunded. It
// never touches inventory.
func (p *PurchaseRecord) Refund(reason string) error {
	if p.Status != StatusConfirmed && p.Status != StatusCancelled {
		return errors.Wrapf(ErrInvalidState, "cannot refund purchase in status %q", p.Status)
	}
	p.Status = StatusRefunded
	p.appendNote("refunded", reason)
	return nil
}

func (p *PurchaseRecord) appendNote(action, reason string) {
	if reason == "" {
		return
	}
	note := fmt.Sprintf("%s: %s", action, reason)
	if p.Notes == "" {
		p.Notes = note
		return
	}
	p.Notes += "; " + note
}

// ValidationResult is the outcome of a redemption validity check.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Validity reports whether the purchase is redeemable at the given
// instant. Pure read, idempotent.
func (p *PurchaseRecord) Validity(now time.Time) ValidationResult {
	if p.Status != StatusConfirmed {
		return ValidationResult{Reason: fmt.Sprintf("purchase is %s, not confirmed", p.Status)}
	}
	if now.After(p.ValidUntil) {
		return ValidationResult{Reason: "purchase validity window has expired"}
	}
	return ValidationResult{Valid: true}
}

// Expired reports whether a confirmed purchase is past its validity
// window. Derived property, not a stored transition.
func (p *PurchaseRecord) Expired(now time.Time) bool {
	return p.Status == StatusConfirmed && now.After(p.ValidUntil)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
