// Package countries wraps the static ISO-3166 reference data behind the
// exact-match lookups the rest of the application needs. The table is built
// once at startup; an unknown code is a caller error.
package countries

import (
	"fmt"
	"sort"

	"github.com/pariz/gountries"

	"github.com/eventatlas/eventatlas-backend/internal/models"
)

type Table struct {
	query *gountries.Query
	all   []models.Country
}

func NewTable() *Table {
	q := gountries.New()

	all := make([]models.Country, 0, len(q.Countries))
	for _, c := range q.FindAllCountries() {
		all = append(all, models.Country{
			Code: c.Alpha2,
			Name: c.Name.Common,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })

	return &Table{query: q, all: all}
}

// Name resolves an alpha-2 code to the country's common name.
func (t *Table) Name(code string) (string, error) {
	c, err := t.query.FindCountryByAlpha(code)
	if err != nil {
		return "", fmt.Errorf("unknown country code %q: %w", code, err)
	}
	return c.Name.Common, nil
}

func (t *Table) Has(code string) bool {
	_, err := t.query.FindCountryByAlpha(code)
	return err == nil
}

// List returns every known country sorted ascending by code.
func (t *Table) List() []models.Country {
	return t.all
}
