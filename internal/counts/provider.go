package counts

import (
	"context"
	"errors"

	"github.com/angeloszaimis/random-image/internal/catalog"
)

const (
	SourceStatic = "static"
	SourceRemote = "remote"
	SourceFile   = "file"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	ErrNotListing       = errors.New("response is not a directory listing")
	ErrNoOrigin         = errors.New("relative counts URL without an absolute origin")
	errBreakerOpen      = errors.New("circuit breaker open")
)

// Provider returns the current count table. Implementations degrade to
// cached or zero counts instead of returning errors.
type Provider interface {
	Counts(ctx context.Context) catalog.Table
	Name() string
}

type staticProvider struct {
	table catalog.Table
}

// NewStatic serves a fixed table.
func NewStatic(table catalog.Table) Provider {
	t := catalog.NewTable()
	for c, n := range table {
		t[c] = n
	}
	return &staticProvider{table: t}
}

func (s *staticProvider) Counts(context.Context) catalog.Table {
	return s.table.Clone()
}

func (s *staticProvider) Name() string {
	return SourceStatic
}
