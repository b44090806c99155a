package domain

// RankingEntry counts how many shelves in a country hold the same title.
type RankingEntry struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Category Category `json:"category"`
	Country  string   `json:"country,omitempty"`
	Count    int      `json:"count"`
}
