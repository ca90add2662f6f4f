package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible_travel/internal/domain"
)

func TestMapHotels_ExtractAliases(t *testing.T) {
	data := map[string]any{
		"extract": map[string]any{
			"hotels": []any{
				map[string]any{"hotel_name": "Hotel Lumiere", "stars": "4,5", "amenities": "roll-in shower, grab bars", "link": "https://h.test/lumiere"},
				map[string]any{"title": "Le Petit", "score": 8.6, "accessibility": []any{map[string]any{"label": "elevator"}}},
				map[string]any{"rating": 3}, // no name
				map[string]any{"name": "hotel lumière"},
			},
		},
	}
	hs, err := mapHotels(data, "https://search.test")
	require.NoError(t, err)
	require.Len(t, hs, 2)

	assert.Equal(t, "Hotel Lumiere", hs[0].Name)
	require.NotNil(t, hs[0].Rating)
	assert.InDelta(t, 4.5, *hs[0].Rating, 1e-9)
	assert.Equal(t, []string{"roll-in shower", "grab bars"}, hs[0].Features)
	assert.Equal(t, "https://h.test/lumiere", hs[0].URL)
	assert.Equal(t, "https://search.test", hs[0].Source)

	// 10-point scores are halved
	require.NotNil(t, hs[1].Rating)
	assert.InDelta(t, 4.3, *hs[1].Rating, 1e-9)
	assert.Equal(t, []string{"elevator"}, hs[1].Features)
}

func TestMapHotels_MarkdownFallback(t *testing.T) {
	md := `# Accessible hotels in Tokyo

- [Hotel Skyline](https://h.test/skyline) 4.5/5 - wheelchair accessible rooms, roll-in shower
- [Budget Inn](https://h.test/budget) - free breakfast
* [Garden Stay](https://h.test/garden): step-free entrance; hearing loop
Not a list line with [link](https://h.test/x) accessible
`
	hs, err := mapHotels(map[string]any{"markdown": md, "extract": map[string]any{"hotels": []any{}}}, "src")
	require.NoError(t, err)
	require.Len(t, hs, 2)

	assert.Equal(t, "Hotel Skyline", hs[0].Name)
	require.NotNil(t, hs[0].Rating)
	assert.InDelta(t, 4.5, *hs[0].Rating, 1e-9)
	assert.Equal(t, []string{"wheelchair accessible rooms", "roll-in shower"}, hs[0].Features)

	assert.Equal(t, "Garden Stay", hs[1].Name)
	assert.Nil(t, hs[1].Rating)
	assert.Equal(t, []string{"step-free entrance", "hearing loop"}, hs[1].Features)
}

func TestMapHotels_NothingUsable(t *testing.T) {
	_, err := mapHotels(map[string]any{"markdown": "- [Budget Inn](https://h.test/budget) - free breakfast"}, "src")
	assert.ErrorIs(t, err, domain.ErrParse)

	_, err = mapHotels(map[string]any{}, "src")
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestIndexWord(t *testing.T) {
	assert.Equal(t, 4, indexWord("the paris metro", "paris"))
	assert.Equal(t, -1, indexWord("parisian cafes", "paris"))
	assert.Equal(t, 9, indexWord("parisian paris", "paris"))
	assert.Equal(t, "zurich", fold("Zürich"))
}
