package domain

import "github.com/cockroachdb/errors"

// Stock is the inventory level of a ticket definition. It is either
// unlimited or bounded by a non-negative count; there is no sentinel
// value in the integer domain.
type Stock struct {
	Unlimited bool  `bson:"unlimited" json:"unlimited"`
	Count     int64 `bson:"count" json:"count"`
}

func UnlimitedStock() Stock {
	return Stock{Unlimited: true}
}

func BoundedStock(count int64) (Stock, error) {
	if count < 0 {
		return Stock{}, errors.Wrapf(ErrValidation, "stock count must be >= 0, got %d", count)
	}
	return Stock{Count: count}, nil
}

// CanCover reports whether qty units can be taken from the stock.
func (s Stock) CanCover(qty int64) bool {
	if qty <= 0 {
		return false
	}
	return s.Unlimited || s.Count >= qty
}

// Reserve returns the stock after taking qty units. Unlimited stock is
// unchanged. The transition is pure; persistence is the caller's concern.
func (s Stock) Reserve(qty int64) (Stock, error) {
	if s.Unlimited {
		return s, nil
	}
	if s.Count < qty {
		return s, errors.Wrapf(ErrInsufficientStock, "have %d, want %d", s.Count, qty)
	}
	return Stock{Count: s.Count - qty}, nil
}

// Release returns the stock after putting qty units back. Unlimited stock
// is unchanged. The increment is unconditional.
func (s Stock) Release(qty int64) Stock {
	if s.Unlimited {
		return s
	}
	return Stock{Count: s.Count + qty}
}
