package catalog

import (
	"strings"
)

// Category identifies one numbered image directory.
type Category string

const (
	Horizontal    Category = "h"
	Vertical      Category = "v"
	R18Horizontal Category = "r18h"
	R18Vertical   Category = "r18v"
	PIDHorizontal Category = "pidh"
	PIDVertical   Category = "pidv"
	TagHorizontal Category = "tagh"
	TagVertical   Category = "tagv"
)

// DefaultBasePath is the URL path every category prefix lives under.
const DefaultBasePath = "/ri"

// Extension is the file extension of every numbered asset.
const Extension = ".webp"

var categories = []Category{
	Horizontal,
	Vertical,
	R18Horizontal,
	R18Vertical,
	PIDHorizontal,
	PIDVertical,
	TagHorizontal,
	TagVertical,
}

var subPaths = map[Category]string{
	Horizontal:    "h",
	Vertical:      "v",
	R18Horizontal: "r18/h",
	R18Vertical:   "r18/v",
	PIDHorizontal: "pid/h",
	PIDVertical:   "pid/v",
	TagHorizontal: "tag/h",
	TagVertical:   "tag/v",
}

// All returns every category in display order.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Parse returns the category named by key.
func Parse(key string) (Category, bool) {
	c := Category(key)
	_, ok := subPaths[c]
	return c, ok
}

// SubPath is the directory of c relative to the image root, e.g. "pid/h".
func (c Category) SubPath() string {
	return subPaths[c]
}

// Prefix joins basePath and the category directory into a URL prefix
// ending in a slash.
func (c Category) Prefix(basePath string) string {
	base := strings.TrimRight(basePath, "/")
	return base + "/" + c.SubPath() + "/"
}

func (c Category) String() string {
	return string(c)
}

// Table maps each category to the number of assets available in it.
// Missing keys read as zero.
type Table map[Category]int

// NewTable returns a table with every category present and set to zero.
func NewTable() Table {
	t := make(Table, len(categories))
	for _, c := range categories {
		t[c] = 0
	}
	return t
}

// Get returns the count for c, clamping negative values to zero.
func (t Table) Get(c Category) int {
	if n := t[c]; n > 0 {
		return n
	}
	return 0
}

// Clone returns an independent copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for c, n := range t {
		out[c] = n
	}
	return out
}
