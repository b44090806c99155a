package domain

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryMovies Category = "movies"
	CategoryBooks  Category = "books"
	CategoryMusic  Category = "music"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryMovies, CategoryBooks, CategoryMusic}

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryMovies, CategoryBooks, CategoryMusic:
		return true
	default:
		return false
	}
}

// Label is the pt-BR noun used when a title is quoted in prose.
func (c Category) Label() string {
	switch c {
	case CategoryMovies:
		return "Filme"
	case CategoryBooks:
		return "Livro"
	case CategoryMusic:
		return "Álbum"
	default:
		return ""
	}
}

// ParseCategory accepts the canonical names case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
