package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OfferStatus tracks the two-phase publish flow: an offer is created as a
// draft, then flipped to published once its image upload succeeded.
type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "draft"
	OfferStatusPublished OfferStatus = "published"
)

// Facet is a single named attribute of an offer (brand, size, condition,
// color, city). On the wire each facet is a one-key object, e.g.
// {"brand":"Nike"}, and the list order is preserved.
type Facet struct {
	Key   string
	Value string
}

func (f Facet) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{f.Key: f.Value})
}

func (f *Facet) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("facet must contain exactly one key, got %d", len(m))
	}
	for k, v := range m {
		f.Key = k
		f.Value = v
	}
	return nil
}

// OfferOwner is the public owner projection embedded in offer responses.
type OfferOwner struct {
	ID      uuid.UUID `json:"_id"`
	Account Account   `json:"account"`
}

// Offer is a single marketplace listing.
type Offer struct {
	ID          uuid.UUID         `json:"_id"`
	Name        string            `json:"product_name"`
	Description string            `json:"product_description"`
	Price       float64           `json:"product_price"`
	Details     []Facet           `json:"product_details"`
	Image       *ImageDescriptor  `json:"product_image,omitempty"`
	Images      []ImageDescriptor `json:"product_images"`
	Status      OfferStatus       `json:"-"`
	Owner       *OfferOwner       `json:"owner,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// SetFacet overwrites the value of an existing facet matched by key. Facets
// never get appended on update.
func (o *Offer) SetFacet(key, value string) {
	for i := range o.Details {
		if o.Details[i].Key == key {
			o.Details[i].Value = value
			return
		}
	}
}

// PublishOfferParams carries the decoded publish form.
type PublishOfferParams struct {
	Title        string
	Description  string
	Price        float64
	HasPrice     bool
	Brand        string
	Size         string
	Condition    string
	Color        string
	City         string
	Picture      *ImageUpload
	PictureCount int
}

// UpdateOfferParams defines the fields allowed for partial offer updates.
// Pointers distinguish "absent" from "empty"; absent fields keep their
// stored values.
type UpdateOfferParams struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	Price       *float64
	Brand       *string
	Size        *string
	Condition   *string
	Color       *string
	City        *string
	Picture     *ImageUpload
}

// SortOrder is the price ordering of a search result.
type SortOrder string

const (
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

// OfferFilter is the normalized search filter built from query parameters.
type OfferFilter struct {
	Title    string
	PriceMin *float64
	PriceMax *float64
	Sort     SortOrder
	Page     int
	Limit    int
}

// Offset is the pagination window start: (page-1) * limit.
func (f OfferFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// OfferList is the search response: the page of offers plus the total count
// of matches under the same filter.
type OfferList struct {
	Count  int     `json:"count"`
	Offers []Offer `json:"offers"`
}
