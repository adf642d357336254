package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minisite/internal/resource"
)

func TestSiteIsPerLocale(t *testing.T) {
	locales := []string{"en", "ja"}
	tests := []struct {
		name string
		site any
		want bool
	}{
		{"exact keys", map[string]any{"ja": 1, "en": 2}, true},
		{"empty key is ignored", map[string]any{"": 0, "en": 1, "ja": 2}, true},
		{"extra key", map[string]any{"en": 1, "ja": 2, "title": 3}, false},
		{"missing key", map[string]any{"en": 1}, false},
		{"not a map", "site", false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, siteIsPerLocale(tt.site, locales))
		})
	}
	assert.False(t, siteIsPerLocale(map[string]any{}, nil))
}

func TestState_LocalesPrepared(t *testing.T) {
	st := NewState(Options{Locales: []string{"en", "ja"}, Site: "shared"})
	assert.Len(t, st.Global, 3)
	for _, l := range []string{"", "en", "ja"} {
		require.Contains(t, st.Global, l)
		assert.Equal(t, "shared", st.Global[l].Site)
	}

	extra := st.Locale("fr")
	assert.Equal(t, "fr", extra.Locale)
	assert.Same(t, extra, st.Global["fr"])
}

func TestState_AddKeepsFirstOnCollision(t *testing.T) {
	st := NewState(Options{})
	a, err := resource.New(src("a.yml", "{}"), resource.Options{})
	require.NoError(t, err)
	b, err := resource.New(src("a.json", "{}"), resource.Options{})
	require.NoError(t, err)

	require.NoError(t, st.add([]*resource.Resource{a}))
	err = st.add([]*resource.Resource{b})
	var collision *PathCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "a.yml", collision.First)
	assert.Equal(t, "a.json", collision.Second)

	r, ok := st.Lookup(a.Filepath)
	require.True(t, ok)
	assert.Same(t, a, r)
}

func TestState_AssetsStayOutOfCollections(t *testing.T) {
	st := NewState(Options{})
	doc, err := resource.New(src("items/a.yml", "{}"), resource.Options{})
	require.NoError(t, err)
	asset, err := resource.New(src("items/a.png", "png"), resource.Options{})
	require.NoError(t, err)

	require.NoError(t, st.add([]*resource.Resource{doc, asset}))
	ls := st.Locale("")
	assert.Len(t, ls.Pages, 1)
	assert.Equal(t, 1, ls.Collections["items"].Len())
	assert.NotContains(t, ls.References, "items/a.png")
	assert.Nil(t, asset.Locales)
	assert.Len(t, st.Resources(), 2)
}
