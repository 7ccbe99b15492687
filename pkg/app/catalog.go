package app

import (
	"strings"

	"github.com/example/shopbot/pkg/models"
)

// DefaultCatalog is the demo assortment loaded by cmd/seed and served by the
// memory driver. IDs are derived from names so reseeding keeps them stable.
func DefaultCatalog() []models.Product {
	products := []models.Product{
		{
			Name:        "Nike Air Max",
			Image:       "https://placehold.co/300x300/a8dadc/000000?text=Nike+Air+Max+270",
			Price:       150.00,
			Sizes:       []models.Size{7, 8, 9, 10, 11, 12},
			Category:    "running",
			Description: "Experience comfort and style with the Nike Air Max 270. Perfect for daily runs or casual wear.",
		},
		{
			Name:        "Adidas Ultraboost",
			Image:       "https://placehold.co/300x300/fca311/000000?text=Adidas+Ultraboost+22",
			Price:       180.00,
			Sizes:       []models.Size{7, 8, 9, 10, 11, 12},
			Category:    "running",
			Description: "The ultimate running shoe with incredible energy return and adaptive fit.",
		},
		{
			Name:        "Puma Suede Classic",
			Image:       "https://placehold.co/300x300/e0e0e0/000000?text=Puma+Suede+Classic",
			Price:       70.00,
			Sizes:       []models.Size{6, 7, 8, 9, 10, 11},
			Category:    "casual",
			Description: "A timeless classic, the Puma Suede offers comfort and iconic style for everyday use.",
		},
		{
			Name:        "Converse Chuck Taylor All Star",
			Image:       "https://placehold.co/300x300/8d99ae/000000?text=Converse+Chuck+Taylor",
			Price:       60.00,
			Sizes:       []models.Size{5, 6, 7, 8, 9, 10},
			Category:    "casual",
			Description: "The original basketball shoe, now an iconic streetwear staple.",
		},
		{
			Name:        "New Balance 990v5",
			Image:       "https://placehold.co/300x300/457b9d/000000?text=New+Balance+990v5",
			Price:       175.00,
			Sizes:       []models.Size{8, 9, 10, 11, 12, 13},
			Category:    "running",
			Description: "Premium comfort and stability for serious runners and everyday wearers alike.",
		},
		{
			Name:        "Vans Old Skool",
			Image:       "https://placehold.co/300x300/1d3557/ffffff?text=Vans+Old+Skool",
			Price:       65.00,
			Sizes:       []models.Size{6, 7, 8, 9, 10, 11},
			Category:    "skate",
			Description: "The classic skate shoe with iconic side stripe, built for durability and style.",
		},
		{
			Name:        "Nike Air Zoom Pegasus 40",
			Image:       "https://placehold.co/300x300/a8dadc/000000?text=Nike+Air+Zoom+Pegasus+40",
			Price:       130.00,
			Sizes:       []models.Size{7, 8, 9, 10, 11, 12, 13},
			Category:    "running",
			Description: "The latest iteration of the Pegasus line, offering responsive cushioning and a smooth ride.",
		},
		{
			Name:        "Brooks Ghost",
			Image:       "https://placehold.co/300x300/a8dadc/000000?text=Brooks+Ghost+15",
			Price:       140.00,
			Sizes:       []models.Size{8, 9, 10, 11, 12, 13, 14},
			Category:    "running",
			Description: "A balanced and soft cushioning experience, perfect for daily runs.",
		},
		{
			Name:        "Hoka Clifton",
			Image:       "https://placehold.co/300x300/a8dadc/000000?text=Hoka+Clifton+9",
			Price:       145.00,
			Sizes:       []models.Size{9, 10, 11, 12, 13, 14, 15},
			Category:    "running",
			Description: "Lightweight and plush, the Clifton 9 offers a smooth and stable ride.",
		},
		{
			Name:        "SwiftStride Running Shoes",
			Image:       "https://placehold.co/300x300/a8dadc/000000?text=SwiftStride+Running+Shoes",
			Price:       89.99,
			Sizes:       []models.Size{7, 8, 9, 10, 11, 12},
			Category:    "running",
			Description: "Lightweight and responsive, designed for your fastest runs.",
		},
		{
			Name:        "CozyComfort Casual Loafers",
			Image:       "https://placehold.co/300x300/fca311/000000?text=CozyComfort+Casual+Loafers",
			Price:       65.00,
			Sizes:       []models.Size{7, 7.5, 8, 8.5, 9, 9.5, 10},
			Category:    "casual",
			Description: "Ultimate comfort for everyday wear, perfect for relaxing.",
		},
		{
			Name:        "UrbanBeat Fashion Sneakers",
			Image:       "https://placehold.co/300x300/e0e0e0/000000?text=UrbanBeat+Fashion+Sneakers",
			Price:       75.50,
			Sizes:       []models.Size{7, 8, 9, 10, 11},
			Category:    "casual",
			Description: "Stylish and trendy sneakers for the urban explorer.",
		},
	}
	for i := range products {
		products[i].ID = Slug(products[i].Name)
	}
	return products
}

// Slug lowercases name and joins its words with dashes.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
