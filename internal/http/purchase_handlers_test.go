package http

import (
	"encoding/json"
	"testing"

	"github.com/artegra/museum-tickets/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseRequest_ClientCannotSetDiscount(t *testing.T) {
	ticketID := uuid.New()
	payload := `{
		"customer": {"name": "Visitor", "email": "visitor@museum.test"},
		"items": [{"ticketId": "` + ticketID.String() + `", "quantity": 2}],
		"paymentMethod": "card",
		"discount": 2360
	}`

	var req purchaseRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	cr := req.createRequest(domain.RequestMeta{})
	assert.Zero(t, cr.Discount)
	require.Len(t, cr.Lines, 1)
	assert.Equal(t, ticketID, cr.Lines[0].TicketID)
	assert.Equal(t, int64(2), cr.Lines[0].Quantity)

	// The submitted discount never reaches the bill: a 2 x 1000 purchase
	// built from this request still totals subtotal plus tax.
	def, err := domain.NewTicketDefinition("Entry", "", domain.CategoryEntry, 1000, domain.UnlimitedStock(), 0)
	require.NoError(t, err)
	item, err := domain.NewLineItem(def, cr.Lines[0].Quantity)
	require.NoError(t, err)
	record, err := domain.NewPurchaseRecord(uuid.New(), cr.Customer, []domain.LineItem{item}, cr.Payment, cr.Discount, cr.Notes, cr.Meta)
	require.NoError(t, err)
	assert.Equal(t, 2360.0, record.Total)
}
