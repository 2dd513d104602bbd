package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacetJSON(t *testing.T) {
	t.Run("MarshalsAsOneKeyObject", func(t *testing.T) {
		payload, err := json.Marshal([]Facet{
			{Key: "brand", Value: "Nike"},
			{Key: "size", Value: "M"},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `[{"brand":"Nike"},{"size":"M"}]`, string(payload))
	})

	t.Run("UnmarshalPreservesOrder", func(t *testing.T) {
		var facets []Facet
		require.NoError(t, json.Unmarshal([]byte(`[{"brand":"Nike"},{"city":"Porto"}]`), &facets))
		assert.Equal(t, []Facet{
			{Key: "brand", Value: "Nike"},
			{Key: "city", Value: "Porto"},
		}, facets)
	})

	t.Run("RejectsMultiKeyObject", func(t *testing.T) {
		var facet Facet
		assert.Error(t, json.Unmarshal([]byte(`{"brand":"Nike","size":"M"}`), &facet))
	})
}

func TestSetFacet(t *testing.T) {
	offer := Offer{Details: []Facet{
		{Key: "brand", Value: "Nike"},
		{Key: "size", Value: "M"},
	}}

	offer.SetFacet("brand", "Adidas")
	assert.Equal(t, []Facet{
		{Key: "brand", Value: "Adidas"},
		{Key: "size", Value: "M"},
	}, offer.Details)

	// Unknown keys are ignored, never appended
	offer.SetFacet("material", "cotton")
	assert.Len(t, offer.Details, 2)
}

func TestOfferJSONHidesStatus(t *testing.T) {
	payload, err := json.Marshal(Offer{Name: "Wool jacket", Status: OfferStatusDraft})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &fields))
	assert.NotContains(t, fields, "status")
	assert.Equal(t, "Wool jacket", fields["product_name"])
}
