package resource

import (
	"slices"
	"strings"
)

// Compare orders siblings by order tag, then slug.
//
// When exactly one of the two carries an order tag, the untagged one sorts
// first.
func Compare(a, b *Resource) int {
	switch {
	case a.Order != "" && b.Order != "":
		if c := strings.Compare(a.Order, b.Order); c != 0 {
			return c
		}
	case a.Order != "":
		return 1
	case b.Order != "":
		return -1
	}
	return strings.Compare(a.Slug, b.Slug)
}

// Collection is the ordered set of sibling documents sharing a collection
// id within one locale. A single Collection value is shared by every
// resource that points at it, so later additions are visible to all of them.
type Collection struct {
	ID     string
	Locale string
	items  []*Resource
}

func NewCollection(id, locale string) *Collection {
	return &Collection{ID: id, Locale: locale}
}

// Items returns the members in their current order. Callers must not
// modify the returned slice.
func (c *Collection) Items() []*Resource {
	if c == nil {
		return nil
	}
	return c.items
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the i-th member, or nil when i is out of range.
func (c *Collection) At(i int) *Resource {
	if c == nil || i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

func (c *Collection) Append(r *Resource) {
	c.items = append(c.items, r)
}

// Sort stably reorders the members with Compare and relinks Prev/Next.
func (c *Collection) Sort() {
	slices.SortStableFunc(c.items, Compare)
	var prev *Resource
	for _, r := range c.items {
		r.Prev = prev
		r.Next = nil
		if prev != nil {
			prev.Next = r
		}
		prev = r
	}
}
