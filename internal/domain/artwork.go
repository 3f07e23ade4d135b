package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type ArtworkCategory string

const (
	ArtworkPainting     ArtworkCategory = "painting"
	ArtworkSculpture    ArtworkCategory = "sculpture"
	ArtworkPhotography  ArtworkCategory = "photography"
	ArtworkInstallation ArtworkCategory = "installation"
	ArtworkDigital      ArtworkCategory = "digital"
	ArtworkOther        ArtworkCategory = "other"
)

func (c ArtworkCategory) Valid() bool {
	switch c {
	case ArtworkPainting, ArtworkSculpture, ArtworkPhotography, ArtworkInstallation, ArtworkDigital, ArtworkOther:
		return true
	}
	return false
}

// ArtworkRecord is a catalog entity independent of the purchase workflow.
// It shares the unique scan-code pattern with purchases.
type ArtworkRecord struct {
	ID          uuid.UUID       `bson:"_id" json:"id"`
	Title       string          `bson:"title" json:"title"`
	Artist      string          `bson:"artist" json:"artist"`
	Year        int             `bson:"year,omitempty" json:"year,omitempty"`
	Description string          `bson:"description,omitempty" json:"description,omitempty"`
	Category    ArtworkCategory `bson:"category" json:"category"`
	Location    string          `bson:"location,omitempty" json:"location,omitempty"`
	ImageURLs   []string        `bson:"image_urls,omitempty" json:"imageUrls,omitempty"`
	Price       float64         `bson:"price,omitempty" json:"price,omitempty"`
	Available   bool            `bson:"available" json:"available"`
	ScanCode    string          `bson:"scan_code" json:"scanCode"`
	QRCode      string          `bson:"qr_code,omitempty" json:"qrCode,omitempty"`
	ViewCount   int64           `bson:"view_count" json:"viewCount"`
	ScanCount   int64           `bson:"scan_count" json:"scanCount"`
	CreatedAt   time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updated_at" json:"updatedAt"`
}

func NewArtworkRecord(title, artist string, year int, description string, category ArtworkCategory, location string, imageURLs []string, price float64) (*ArtworkRecord, error) {
	if title == "" || len(title) > 300 {
		return nil, errors.Wrap(ErrValidation, "title must be 1-300 characters")
	}
	if artist == "" || len(artist) > 200 {
		return nil, errors.Wrap(ErrValidation, "artist must be 1-200 characters")
	}
	if year != 0 && (year < -3000 || year > time.Now().Year()) {
		return nil, errors.Wrapf(ErrValidation, "implausible year %d", year)
	}
	if !category.Valid() {
		return nil, errors.Wrapf(ErrValidation, "unknown category %q", category)
	}
	if price < 0 {
		return nil, errors.Wrap(ErrValidation, "price must be >= 0")
	}
	now := time.Now().UTC()
	return &ArtworkRecord{
		ID:          uuid.New(),
		Title:       title,
		Artist:      artist,
		Year:        year,
		Description: description,
		Category:    category,
		Location:    location,
		ImageURLs:   imageURLs,
		Price:       price,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
