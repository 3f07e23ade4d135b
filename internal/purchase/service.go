package purchase

import (
	"context"
	"time"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/artegra/museum-tickets/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// codeAttempts bounds retries when the store rejects a generated code
// as a duplicate.
const codeAttempts = 3

// PurchaseStore is the record-store contract the workflow consumes.
type PurchaseStore interface {
	Insert(ctx context.Context, p *domain.PurchaseRecord) error
	ByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseRecord, error)
	ByCode(ctx context.Context, code string) (*domain.PurchaseRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status domain.PurchaseStatus, page, limit int64) ([]domain.PurchaseRecord, int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.PurchaseStatus, notes string) error
	ExpireDue(ctx context.Context, now time.Time) ([]domain.PurchaseRecord, error)
	Stats(ctx context.Context, start, end time.Time) (*domain.PurchaseStats, error)
}

// TicketSource resolves ticket definitions for line validation.
type TicketSource interface {
	TicketByID(ctx context.Context, id uuid.UUID) (*domain.TicketDefinition, error)
}

// StockKeeper is the inventory collaborator.
type StockKeeper interface {
	Reserve(ctx context.Context, t *domain.TicketDefinition, qty int64) error
	Release(ctx context.Context, t *domain.TicketDefinition, qty int64) error
	RecordSale(ctx context.Context, id uuid.UUID, qty int64, amount float64) error
}

// Encoder renders a redemption code as a scannable image.
type Encoder interface {
	Encode(text string) (string, error)
}

// EventSink records lifecycle events for asynchronous publication.
type EventSink interface {
	Append(ctx context.Context, eventType string, aggregateID uuid.UUID, payload any) error
}

type Service struct {
	purchases PurchaseStore
	tickets   TicketSource
	stock     StockKeeper
	encoder   Encoder
	events    EventSink
	logger    observability.Logger
	now       func() time.Time
}

func NewService(purchases PurchaseStore, tickets TicketSource, stock StockKeeper, encoder Encoder, events EventSink, logger observability.Logger) *Service {
	return &Service{
		purchases: purchases,
		tickets:   tickets,
		stock:     stock,
		encoder:   encoder,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type Line struct {
	TicketID uuid.UUID
	Quantity int64
}

type CreateRequest struct {
	Customer domain.CustomerSnapshot
	Lines    []Line
	Payment  domain.PaymentMethod
	Discount float64
	Notes    string
	Meta     domain.RequestMeta
}

// Create runs the purchase workflow: validate every line, aggregate
// totals, reserve stock, then persist the record with a unique code and
// its QR encoding. Stock is reserved before the record is written; a
// persist failure is compensated by releasing the reserved lines, so a
// stored purchase always has its stock accounted for.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*domain.PurchaseRecord, error) {
	if len(req.Lines) == 0 {
		return nil, errors.Wrap(domain.ErrValidation, "no items requested")
	}

	defs, err := s.fetchTickets(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, len(req.Lines))
	for i, line := range req.Lines {
		def := defs[i]
		if !def.AvailableFor(line.Quantity) {
			observability.PurchasesTotal.WithLabelValues("rejected").Inc()
			if !def.Available {
				return nil, errors.Wrapf(domain.ErrTicketUnavailable, "ticket %q", def.Name)
			}
			return nil, errors.Wrapf(domain.ErrInsufficientStock, "ticket %q", def.Name)
		}
		item, err := domain.NewLineItem(def, line.Quantity)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	record, err := domain.NewPurchaseRecord(userID, req.Customer, items, req.Payment, req.Discount, req.Notes, req.Meta)
	if err != nil {
		return nil, err
	}

	reserved, err := s.reserveLines(ctx, defs, req.Lines)
	if err != nil {
		observability.PurchasesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := s.persistWithFreshCode(ctx, record); err != nil {
		s.releaseLines(ctx, defs[:reserved], req.Lines[:reserved])
		observability.PurchasesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	for i, line := range req.Lines {
		if err := s.stock.RecordSale(ctx, line.TicketID, line.Quantity, items[i].LineTotal); err != nil {
			s.logger.WithField("ticket_id", line.TicketID).Error("failed to record sale", err)
		}
	}

	s.emit(ctx, "purchase.created", record)
	observability.PurchasesTotal.WithLabelValues("created").Inc()
	return record, nil
}

func (s *Service) fetchTickets(ctx context.Context, lines []Line) ([]*domain.TicketDefinition, error) {
	defs := make([]*domain.TicketDefinition, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			def, err := s.tickets.TicketByID(gctx, line.TicketID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return errors.Wrapf(domain.ErrNotFound, "ticket %s", line.TicketID)
				}
				return err
			}
			defs[i] = def
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return defs, nil
}

// reserveLines reserves stock line by line, returning how many lines
// were reserved before a failure. The caller releases that prefix.
func (s *Service) reserveLines(ctx context.Context, defs []*domain.TicketDefinition, lines []Line) (int, error) {
	for i, line := range lines {
		if err := s.stock.Reserve(ctx, defs[i], line.Quantity); err != nil {
			s.releaseLines(ctx, defs[:i], lines[:i])
			if errors.Is(err, domain.ErrInsufficientStock) {
				return i, errors.Wrapf(domain.ErrInsufficientStock, "ticket %q", defs[i].Name)
			}
			return i, err
		}
	}
	return len(lines), nil
}

func (s *Service) releaseLines(ctx context.Context, defs []*domain.TicketDefinition, lines []Line) {
	for i, line := range lines {
		if err := s.stock.Release(ctx, defs[i], line.Quantity); err != nil {
			s.logger.WithField("ticket_id", line.TicketID).Error("failed to release stock", err)
		}
	}
}

// persistWithFreshCode assigns a code and its QR encoding, retrying on
// a store-level code collision.
func (s *Service) persistWithFreshCode(ctx context.Context, record *domain.PurchaseRecord) error {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := domain.NewCode(domain.PurchaseCodePrefix)
		if err != nil {
			return err
		}
		qr, err := s.encoder.Encode(code)
		if err != nil {
			return err
		}
		record.Code = code
		record.QRCode = qr

		err = s.purchases.Insert(ctx, record)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return err
		}
		s.logger.WithField("code", code).Warn("redemption code collision, regenerating")
	}
	return errors.Wrapf(domain.ErrDuplicateKey, "exhausted %d code attempts", codeAttempts)
}

// Cancel transitions a confirmed purchase to cancelled and releases its
// stock. The record update and the inventory updates are separate store
// calls; the outbox event makes a failure between them reconcilable.
func (s *Service) Cancel(ctx context.Context, actorID uuid.UUID, admin bool, id uuid.UUID, reason string) (*domain.PurchaseRecord, error) {
	record, err := s.purchases.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Another user's purchase looks absent, not forbidden.
	if !admin && record.UserID != actorID {
		return nil, domain.ErrNotFound
	}

	if err := record.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.purchases.SetStatus(ctx, record.ID, record.Status, record.Notes); err != nil {
		return nil, err
	}

	for _, item := range record.Items {
		def, err := s.tickets.TicketByID(ctx, item.TicketID)
		if err != nil {
			s.logger.WithField("ticket_id", item.TicketID).Error("failed to load ticket for release", err)
			continue
		}
		if err := s.stock.Release(ctx, def, item.Quantity); err != nil {
			s.logger.WithField("ticket_id", item.TicketID).Error("failed to release stock", err)
		}
	}

	s.emit(ctx, "purchase.cancelled", record)
	observability.PurchasesTotal.WithLabelValues("cancelled").Inc()
	return record, nil
}

// Refund transitions a confirmed or cancelled purchase to refunded. It
// never touches inventory.
func (s *Service) Refund(ctx context.Context, id uuid.UUID, reason string) (*domain.PurchaseRecord, error) {
	record, err := s.purchases.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.Refund(reason); err != nil {
		return nil, err
	}
	if err := s.purchases.SetStatus(ctx, record.ID, record.Status, record.Notes); err != nil {
		return nil, err
	}

	s.emit(ctx, "purchase.refunded", record)
	observability.PurchasesTotal.WithLabelValues("refunded").Inc()
	return record, nil
}

// Get returns a purchase visible to the actor. Another user's purchase
// looks absent, not forbidden.
func (s *Service) Get(ctx context.Context, actorID uuid.UUID, admin bool, id uuid.UUID) (*domain.PurchaseRecord, error) {
	record, err := s.purchases.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && record.UserID != actorID {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, status domain.PurchaseStatus, page, limit int64) ([]domain.PurchaseRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.purchases.ListByUser(ctx, userID, status, page, limit)
}

// VerifyCode is the redemption verifier: look up the unique purchase
// for a code and report its present-moment validity. No mutation.
func (s *Service) VerifyCode(ctx context.Context, code string) (domain.ValidationResult, error) {
	record, err := s.purchases.ByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ValidationResult{}, domain.ErrCodeNotFound
		}
		return domain.ValidationResult{}, err
	}
	return record.Validity(s.now()), nil
}

// ExpireOverdue materializes expiry on confirmed purchases past their
// validity window and emits an event per affected record.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	due, err := s.purchases.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for i := range due {
		s.emit(ctx, "purchase.expired", &due[i])
	}
	return len(due), nil
}

func (s *Service) Stats(ctx context.Context, start, end time.Time) (*domain.PurchaseStats, error) {
	return s.purchases.Stats(ctx, start, end)
}

func (s *Service) emit(ctx context.Context, eventType string, record *domain.PurchaseRecord) {
	payload := map[string]any{
		"purchase_id": record.ID,
		"code":        record.Code,
		"status":      record.Status,
		"total":       record.Total,
	}
	if err := s.events.Append(ctx, eventType, record.ID, payload); err != nil {
		s.logger.WithField("event", eventType).Error("failed to append outbox event", err)
	}
}
