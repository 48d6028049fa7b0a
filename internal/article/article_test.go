package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKey(t *testing.T) {
	cases := []struct {
		name string
		a    Article
		want string
	}{
		{"url", Article{URL: "https://example.com/a", Headline: "h", Source: "s"}, "https://example.com/a"},
		{"sentinel url", Article{URL: NoURL, Headline: "h", Source: "s"}, "hs"},
		{"empty url", Article{Headline: "h", Source: "s"}, "hs"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.a.IdentityKey())
		})
	}
}

func TestWithCategoryDoesNotMutateInput(t *testing.T) {
	in := []Article{{ID: "1", Category: CategoryTrending}, {ID: "2", Category: CategoryUserSubmitted}}

	out := WithCategory(in, CategoryGeneral)

	require.Len(t, out, 2)
	for _, a := range out {
		assert.Equal(t, CategoryGeneral, a.Category)
	}
	assert.Equal(t, CategoryTrending, in[0].Category)
	assert.Equal(t, CategoryUserSubmitted, in[1].Category)
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("user submitted")
	require.True(t, ok)
	assert.Equal(t, CategoryUserSubmitted, c)

	_, ok = ParseCategory("weather")
	assert.False(t, ok)
}

func TestNormalizeDistrict(t *testing.T) {
	d, ok := NormalizeDistrict("mysuru")
	require.True(t, ok)
	assert.Equal(t, "Mysuru", d)

	d, ok = NormalizeDistrict(" KARNATAKA ")
	require.True(t, ok)
	assert.Equal(t, AllDistricts, d)

	_, ok = NormalizeDistrict("Atlantis")
	assert.False(t, ok)
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "Karnataka", SearchQuery(AllDistricts))
	assert.Equal(t, "Mysuru Karnataka", SearchQuery("Mysuru"))
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr("   "))
	p := StringPtr(" x ")
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}
