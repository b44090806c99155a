package domain

// SearchResult is one normalized catalog match. It is never persisted.
type SearchResult struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	ExternalID string   `json:"externalId,omitempty"`
	Category   Category `json:"category"`
}
