package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTicket(t *testing.T, price float64, stock Stock) *TicketDefinition {
	t.Helper()
	def, err := NewTicketDefinition("General Entry", "One-day museum entry", CategoryEntry, price, stock, 0)
	require.NoError(t, err)
	return def
}

func TestNewTicketDefinition_Defaults(t *testing.T) {
	def := newTestTicket(t, 1000, UnlimitedStock())

	assert.True(t, def.Available)
	assert.Equal(t, DefaultValidityDays, def.ValidityDays)
	assert.Zero(t, def.PurchaseCount)
	assert.Zero(t, def.TotalRevenue)
}

func TestNewTicketDefinition_Validation(t *testing.T) {
	stock, _ := BoundedStock(10)

	cases := []struct {
		name     string
		ticket   string
		category TicketCategory
		price    float64
		days     int
	}{
		{"empty name", "", CategoryEntry, 100, 30},
		{"bad category", "Entry", TicketCategory("vip"), 100, 30},
		{"negative price", "Entry", CategoryEntry, -1, 30},
		{"price above bound", "Entry", CategoryEntry, MaxTicketPrice + 1, 30},
		{"validity too long", "Entry", CategoryEntry, 100, MaxValidityDays + 1},
		{"negative validity", "Entry", CategoryEntry, 100, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTicketDefinition(tc.ticket, "", tc.category, tc.price, stock, tc.days)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestTicket_AvailableFor(t *testing.T) {
	stock, _ := BoundedStock(5)
	def := newTestTicket(t, 500, stock)

	assert.True(t, def.AvailableFor(5))
	assert.False(t, def.AvailableFor(6))

	def.Available = false
	assert.False(t, def.AvailableFor(1))

	unlimited := newTestTicket(t, 500, UnlimitedStock())
	assert.True(t, unlimited.AvailableFor(10_000))
}
