package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/stwalsh4118/listings/api/internal/models"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(w io.Writer, p *models.Property) error {
	lines := []struct{ label, value string }{
		{"Title", p.Title},
		{"Location", p.Location},
		{"Price", "$" + formatPrice(p.Price)},
		{"Sqft", strconv.FormatFloat(p.Area, 'f', -1, 64)},
		{"Beds", strconv.Itoa(p.Bedrooms)},
		{"Baths", strconv.FormatFloat(p.Bathrooms, 'f', -1, 64)},
		{"Built", strconv.Itoa(p.YearBuilt)},
		{"Type", p.PropertyType},
		{"Status", string(p.Status)},
		{"Email", p.ContactEmail},
		{"Phone", p.ContactPhone},
		{"Image", p.ImageURL},
		{"Created", p.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Updated", p.UpdatedAt.Format("2006-01-02 15:04:05")},
	}

	if _, err := fmt.Fprintf(w, "Property #%d\n", p.ID); err != nil {
		return err
	}
	for _, l := range lines {
		if l.value == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-9s %s\n", l.label+":", l.value); err != nil {
			return err
		}
	}
	if p.Description != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", p.Description); err != nil {
			return err
		}
	}
	return nil
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(out io.Writer, props []models.Property) error {
	if len(props) == 0 {
		_, err := fmt.Fprintln(out, "No properties found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tPRICE\tBED\tBATH\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t--------\t-----\t---\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t$%s\t%d\t%g\t%s\n",
			p.ID, truncate(p.Title, 30), truncate(p.Location, 30), formatPrice(p.Price),
			p.Bedrooms, p.Bathrooms, p.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d properties\n", len(props))
	return err
}

// formatPrice formats a dollar amount with thousands separators, keeping
// cents only when present.
func formatPrice(amount float64) string {
	whole := int64(amount)
	cents := int64((amount-float64(whole))*100 + 0.5)
	if cents == 100 {
		whole++
		cents = 0
	}

	s := strconv.FormatInt(whole, 10)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")

	if cents > 0 {
		out += fmt.Sprintf(".%02d", cents)
	}
	return out
}

// truncate shortens s to max runes, ending with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
