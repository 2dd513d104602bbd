package offer

import (
	"fmt"

	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

const (
	maxTitleLength       = 50
	maxPrice             = 100_000
	maxDescriptionLength = 500
)

// ValidateOfferBounds rejects over-limit mutation fields. Absent (nil)
// fields skip their own check; the first violation wins.
func ValidateOfferBounds(title *string, price *float64, description *string) error {
	if title != nil && len(*title) > maxTitleLength {
		return fmt.Errorf("%w: the title is too long, max %d chars", types.ErrValidation, maxTitleLength)
	}
	if price != nil && *price > maxPrice {
		return fmt.Errorf("%w: the price is too high, max value %d", types.ErrValidation, maxPrice)
	}
	if description != nil && len(*description) > maxDescriptionLength {
		return fmt.Errorf("%w: the description is too long, max %d chars", types.ErrValidation, maxDescriptionLength)
	}
	return nil
}
