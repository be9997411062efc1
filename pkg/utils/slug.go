package utils

import (
	"github.com/gosimple/slug"
)

// Slugify derives the URL-friendly form of an event title. Slugs are
// cosmetic; lookups always go by id.
func Slugify(title string) string {
	return slug.Make(title)
}
