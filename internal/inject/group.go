package inject

import (
	"context"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"minisite/internal/builder"
	"minisite/internal/resource"
	"minisite/internal/util"
)

// GroupBy emits one document per distinct value of an attribute across a
// collection, at <collection>/<Dir>/<value>. Values appear in the order
// they are first seen in the sorted collection. Truncate, when positive,
// groups by a prefix of the value (7 turns dates into months).
type GroupBy struct {
	Collection string `yaml:"collection"`
	Key        string `yaml:"key"`
	Dir        string `yaml:"dir"`
	Template   string `yaml:"template"`
	Truncate   int    `yaml:"truncate"`
	Locale     string `yaml:"locale"`
}

type group struct {
	value   string
	members []*resource.Resource
}

func (g GroupBy) Injector() builder.Injector {
	return func(_ context.Context, st *builder.State, _ *builder.Options) (any, error) {
		if g.Key == "" {
			return nil, fmt.Errorf("group %q: key is required", g.Collection)
		}
		dir := g.Dir
		if dir == "" {
			dir = g.Key
		}

		groups := g.collect(st.Locale(g.Locale).Collections[g.Collection])
		specs := make([]builder.Spec, 0, len(groups))
		for _, grp := range groups {
			slug := util.Slugify(grp.value)
			if slug == "" {
				continue
			}
			data := map[string]any{
				g.Key:   grp.value,
				"count": len(grp.members),
				"items": resourceIDs(grp.members),
			}
			if g.Template != "" {
				data["template"] = g.Template
			}
			contents, err := yaml.Marshal(data)
			if err != nil {
				return nil, err
			}
			specs = append(specs, builder.Spec{
				Path:     path.Join(g.Collection, dir, withLocale(slug, g.Locale)),
				Contents: contents,
			})
		}
		return specs, nil
	}
}

func (g GroupBy) collect(c *resource.Collection) []*group {
	var groups []*group
	index := map[string]*group{}
	for _, r := range c.Items() {
		for _, v := range attributeValues(r.Attr(g.Key)) {
			if g.Truncate > 0 && len([]rune(v)) > g.Truncate {
				v = string([]rune(v)[:g.Truncate])
			}
			grp, ok := index[v]
			if !ok {
				grp = &group{value: v}
				index[v] = grp
				groups = append(groups, grp)
			}
			grp.members = append(grp.members, r)
		}
	}
	return groups
}

// attributeValues flattens a scalar or list attribute into strings, so a
// document tagged [a, b] belongs to both groups.
func attributeValues(v any) []string {
	switch v := v.(type) {
	case nil:
		return nil
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, attributeValues(item)...)
		}
		return out
	case string:
		return []string{v}
	default:
		return []string{fmt.Sprint(v)}
	}
}
