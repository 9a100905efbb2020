package catalog

// Kind is the value of the img query parameter.
type Kind string

// Route is what a kind resolves to before device classification.
type Route struct {
	Kind Kind
	// Default is used for desktop clients and for fixed-orientation kinds.
	Default []Category
	// Mobile replaces Default for mobile clients when set.
	Mobile []Category
	// Composite routes are picked by weight across their categories.
	Composite bool
	// Description is shown on the help page.
	Description string
}

// Resolve returns the categories a request should pick from.
func (r Route) Resolve(mobile bool) []Category {
	if mobile && len(r.Mobile) > 0 {
		return r.Mobile
	}
	return r.Default
}

// Adaptive reports whether the route depends on the client device.
func (r Route) Adaptive() bool {
	return len(r.Mobile) > 0
}

var (
	allHorizontal    = []Category{Horizontal, PIDHorizontal, TagHorizontal}
	allVertical      = []Category{Vertical, PIDVertical, TagVertical}
	allR18Horizontal = []Category{Horizontal, PIDHorizontal, TagHorizontal, R18Horizontal}
	allR18Vertical   = []Category{Vertical, PIDVertical, TagVertical, R18Vertical}
)

// Section groups routes on the help page.
type Section struct {
	Title  string
	Routes []Route
}

var sections = []Section{
	{
		Title: "Plain",
		Routes: []Route{
			direct("h", Horizontal, "random horizontal image"),
			direct("v", Vertical, "random vertical image"),
			adaptive("ua", Horizontal, Vertical, "horizontal or vertical by device"),
		},
	},
	{
		Title: "R18",
		Routes: []Route{
			direct("r18h", R18Horizontal, "random R18 horizontal image"),
			direct("r18v", R18Vertical, "random R18 vertical image"),
			adaptive("r18ua", R18Horizontal, R18Vertical, "R18 horizontal or vertical by device"),
		},
	},
	{
		Title: "PID",
		Routes: []Route{
			direct("pidh", PIDHorizontal, "random PID horizontal image"),
			direct("pidv", PIDVertical, "random PID vertical image"),
			adaptive("pidua", PIDHorizontal, PIDVertical, "PID horizontal or vertical by device"),
		},
	},
	{
		Title: "Tag",
		Routes: []Route{
			direct("tagh", TagHorizontal, "random tag horizontal image"),
			direct("tagv", TagVertical, "random tag vertical image"),
			adaptive("tagua", TagHorizontal, TagVertical, "tag horizontal or vertical by device"),
		},
	},
	{
		Title: "Mixed (weighted by count)",
		Routes: []Route{
			composite("allh", allHorizontal, nil, "plain + PID + tag, horizontal"),
			composite("allv", allVertical, nil, "plain + PID + tag, vertical"),
			composite("allua", allHorizontal, allVertical, "plain + PID + tag, by device"),
			composite("allr18h", allR18Horizontal, nil, "plain + PID + tag + R18, horizontal"),
			composite("allr18v", allR18Vertical, nil, "plain + PID + tag + R18, vertical"),
			composite("allr18ua", allR18Horizontal, allR18Vertical, "plain + PID + tag + R18, by device"),
		},
	},
}

var routes = func() map[Kind]Route {
	m := make(map[Kind]Route)
	for _, s := range sections {
		for _, r := range s.Routes {
			m[r.Kind] = r
		}
	}
	return m
}()

// Lookup returns the route for an img value. Unknown and empty kinds
// report false.
func Lookup(kind string) (Route, bool) {
	r, ok := routes[Kind(kind)]
	return r, ok
}

// Sections returns the routes grouped for the help page.
func Sections() []Section {
	return sections
}

func direct(kind Kind, c Category, desc string) Route {
	return Route{Kind: kind, Default: []Category{c}, Description: desc}
}

func adaptive(kind Kind, h, v Category, desc string) Route {
	return Route{Kind: kind, Default: []Category{h}, Mobile: []Category{v}, Description: desc}
}

func composite(kind Kind, def, mobile []Category, desc string) Route {
	return Route{Kind: kind, Default: def, Mobile: mobile, Composite: true, Description: desc}
}
