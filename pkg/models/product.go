package models

import (
	"strconv"
	"strings"
)

// Size is a shoe size. Half sizes are allowed.
type Size float64

func (s Size) String() string {
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// ParseSize parses "9", "9.5" or "size 9".
func ParseSize(raw string) (Size, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "size"))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return Size(v), nil
}

type Product struct {
	ID          string  `bson:"_id" json:"id"`
	Name        string  `bson:"name" json:"name"`
	Image       string  `bson:"image" json:"image"`
	Price       float64 `bson:"price" json:"price"`
	Sizes       []Size  `bson:"sizes" json:"sizes"`
	Category    string  `bson:"category" json:"category"`
	Description string  `bson:"description" json:"description"`
}

func (p *Product) HasSize(size Size) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// SizeList renders the available sizes as "7, 8, 9".
func (p *Product) SizeList() string {
	parts := make([]string, len(p.Sizes))
	for i, s := range p.Sizes {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// Validate checks the invariants enforced at the store boundary.
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return ErrInvalidProduct
	case p.Price < 0:
		return ErrInvalidProduct
	case len(p.Sizes) == 0:
		return ErrInvalidProduct
	}
	return nil
}
