package handler

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/angeloszaimis/random-image/internal/catalog"
)

func renderHelp(table catalog.Table, source string) string {
	var b strings.Builder

	b.WriteString("Random image API\n\n")
	b.WriteString("Usage: ?img=<kind>\n")
	b.WriteString("Adaptive kinds pick vertical images for mobile user agents and horizontal ones otherwise.\n")

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, s := range catalog.Sections() {
		fmt.Fprintf(tw, "\n%s\n", s.Title)
		for _, r := range s.Routes {
			fmt.Fprintf(tw, "  %s\t%s\n", r.Kind, r.Description)
		}
	}
	_ = tw.Flush()

	fmt.Fprintf(&b, "\nImage counts (source: %s)\n", source)
	tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, c := range catalog.All() {
		fmt.Fprintf(tw, "  %s\t%d\n", c, table.Get(c))
	}
	_ = tw.Flush()

	return b.String()
}

func renderError(err error, incident, requestURL string, at time.Time, stack []byte) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Internal server error: %s\n\n", err)
	fmt.Fprintf(&b, "Incident: %s\n", incident)
	fmt.Fprintf(&b, "URL: %s\n", requestURL)
	fmt.Fprintf(&b, "Time: %s\n", at.UTC().Format(time.RFC3339))

	if len(stack) > 0 {
		fmt.Fprintf(&b, "\nStack:\n%s\n", stack)
	}

	return b.String()
}
