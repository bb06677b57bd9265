package domain

// Candidate is a profile returned by the matching service, eligible for
// presentation. Immutable once fetched; discarded on cache clear.
type Candidate struct {
	ID                 string   `json:"id"`
	DisplayName        string   `json:"display_name,omitempty"`
	AvatarURL          string   `json:"avatar_url,omitempty"`
	Bio                string   `json:"bio,omitempty"`
	Age                int      `json:"age,omitempty"`
	Interests          []string `json:"interests,omitempty"`
	Traits             []string `json:"traits,omitempty"`
	ZodiacSign         string   `json:"zodiac_sign,omitempty"`
	CompatibilityScore float64  `json:"compatibility_score,omitempty"`
	DistanceKM         float64  `json:"distance_km,omitempty"`
	DateActivity       string   `json:"date_activity,omitempty"`
	IsMatchRecommended bool     `json:"is_match_recommended,omitempty"`
}

// FetchFilters narrows a match-list fetch. Value object, rebuilt per call.
type FetchFilters struct {
	ZodiacSign   string
	DateActivity string
	MinAge       int
	MaxAge       int
	MaxDistance  float64
	Limit        int
	Cursor       string
	Page         int
	PageSize     int
	Refresh      bool
}

// Page is one page of candidates from the match-list endpoint.
// NextCursor is empty iff no further pages exist.
type Page struct {
	Candidates []Candidate
	NextCursor string
}
