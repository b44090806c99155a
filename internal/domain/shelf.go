package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ShelfSize is the fixed number of slots per category.
const ShelfSize = 7

// Item is a SearchResult that was placed on a shelf.
type Item struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	AffiliateLink string   `json:"affiliateLink"`
	Category      Category `json:"category"`
}

// LinkBuilder produces the commerce link attached to a new Item.
type LinkBuilder interface {
	BuildLink(result SearchResult, category Category) string
}

// NewItem turns a chosen search result into a shelf item with a fresh id.
func NewItem(result SearchResult, category Category, links LinkBuilder) Item {
	item := Item{
		ID:       uuid.NewString(),
		Title:    strings.TrimSpace(result.Title),
		Subtitle: strings.TrimSpace(result.Subtitle),
		ImageURL: result.ImageURL,
		Category: category,
	}
	if links != nil {
		item.AffiliateLink = links.BuildLink(result, category)
	}
	return item
}

// Row is one category's slots. A nil entry is an empty slot.
// Decoding JSON into a Row pads short arrays and drops extra entries.
type Row [ShelfSize]*Item

// Shelf holds the three category rows of an account.
type Shelf struct {
	Movies Row `json:"movies"`
	Books  Row `json:"books"`
	Music  Row `json:"music"`
}

func (s *Shelf) row(category Category) (*Row, error) {
	switch category {
	case CategoryMovies:
		return &s.Movies, nil
	case CategoryBooks:
		return &s.Books, nil
	case CategoryMusic:
		return &s.Music, nil
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

// Row returns a copy of the slots for a category.
func (s *Shelf) Row(category Category) Row {
	r, err := s.row(category)
	if err != nil {
		return Row{}
	}
	return *r
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= ShelfSize {
		return fmt.Errorf("slot %d out of range [0,%d)", slot, ShelfSize)
	}
	return nil
}

// Set stores item in the slot, replacing whatever was there.
func (s *Shelf) Set(category Category, slot int, item Item) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	r, err := s.row(category)
	if err != nil {
		return err
	}
	item.Category = category
	r[slot] = &item
	return nil
}

// Clear empties the slot.
func (s *Shelf) Clear(category Category, slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	r, err := s.row(category)
	if err != nil {
		return err
	}
	r[slot] = nil
	return nil
}

// Titles returns the non-empty titles of a category in slot order.
func (s *Shelf) Titles(category Category) []string {
	row := s.Row(category)
	titles := make([]string, 0, ShelfSize)
	for _, item := range row {
		if item == nil {
			continue
		}
		if t := strings.TrimSpace(item.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

// Count returns the number of filled slots across all categories.
func (s *Shelf) Count() int {
	n := 0
	for _, c := range Categories {
		for _, item := range s.Row(c) {
			if item != nil {
				n++
			}
		}
	}
	return n
}

// Normalize drops malformed entries and stamps each item with its row's category.
func (s *Shelf) Normalize() {
	for _, c := range Categories {
		r, _ := s.row(c)
		for i, item := range r {
			if item == nil {
				continue
			}
			if strings.TrimSpace(item.Title) == "" {
				r[i] = nil
				continue
			}
			item.Category = c
		}
	}
}

// ShelfTitles is the persona input: titles only, per category.
type ShelfTitles struct {
	Movies []string `json:"movies"`
	Books  []string `json:"books"`
	Music  []string `json:"music"`
}

// TitlesOf extracts the persona input from a shelf.
func TitlesOf(s *Shelf) ShelfTitles {
	return ShelfTitles{
		Movies: s.Titles(CategoryMovies),
		Books:  s.Titles(CategoryBooks),
		Music:  s.Titles(CategoryMusic),
	}
}
