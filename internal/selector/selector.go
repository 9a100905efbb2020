package selector

import (
	"strconv"

	"github.com/angeloszaimis/random-image/internal/catalog"
)

// Selection is a concrete image chosen for a request.
type Selection struct {
	Category catalog.Category
	Number   int
	Path     string
}

// Selector turns a count table into image paths.
type Selector struct {
	source   Source
	basePath string
}

// New creates a Selector. A nil source uses NewCryptoSource.
func New(source Source, basePath string) *Selector {
	if source == nil {
		source = NewCryptoSource()
	}

	return &Selector{
		source:   source,
		basePath: basePath,
	}
}

// Pick draws an image number in [1, count] for c. It reports false when the
// category has no images.
func (s *Selector) Pick(c catalog.Category, counts catalog.Table) (Selection, bool) {
	bound := counts.Get(c)
	if bound < 1 {
		return Selection{}, false
	}

	n := Between(s.source, 1, bound)
	return Selection{
		Category: c,
		Number:   n,
		Path:     c.Prefix(s.basePath) + strconv.Itoa(n) + catalog.Extension,
	}, true
}
