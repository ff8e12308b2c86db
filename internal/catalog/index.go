package catalog

import (
	"sort"
	"strings"
)

// ClientIndex answers lookups by lowercase client name. It is rebuilt from
// the collection after every change.
type ClientIndex struct {
	byName map[string]Client
}

func NewClientIndex(clients []Client) *ClientIndex {
	idx := &ClientIndex{byName: make(map[string]Client, len(clients))}
	for _, c := range clients {
		idx.byName[Key(c.Name)] = c
	}

	return idx
}

func (x *ClientIndex) Lookup(name string) (Client, bool) {
	c, ok := x.byName[Key(name)]
	return c, ok
}

// Suggest returns up to limit clients whose name starts with prefix.
func (x *ClientIndex) Suggest(prefix string, limit int) []Client {
	p := Key(prefix)

	var out []Client

	for k, c := range x.byName {
		if strings.HasPrefix(k, p) {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

func (x *ClientIndex) Len() int {
	return len(x.byName)
}

// ItemIndex answers price lookups by lowercase description.
type ItemIndex struct {
	byDesc map[string]Item
}

func NewItemIndex(items []Item) *ItemIndex {
	idx := &ItemIndex{byDesc: make(map[string]Item, len(items))}
	for _, it := range items {
		idx.byDesc[Key(it.Description)] = it
	}

	return idx
}

func (x *ItemIndex) Lookup(description string) (Item, bool) {
	it, ok := x.byDesc[Key(description)]
	return it, ok
}

func (x *ItemIndex) Len() int {
	return len(x.byDesc)
}
