package models

// SearchRequest carries the search form. Every field is optional; an empty
// field puts no constraint on that dimension.
type SearchRequest struct {
	Query    string `form:"query"`
	Country  string `form:"country" validate:"omitempty,iso3166_1_alpha2"`
	Theme    string `form:"theme"`
	Audience string `form:"audience"`
}

type SearchResponse struct {
	Events      []Event `json:"events"`
	CountryCode string  `json:"country_code"`
}
