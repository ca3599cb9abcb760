package catalog

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

var categoryMap = map[string]string{
	"tops":             "womens-clothing",
	"womens-dresses":   "womens-clothing",
	"womens-shoes":     "shoes",
	"mens-shirts":      "mens-clothing",
	"mens-shoes":       "shoes",
	"mens-watches":     "accessories",
	"womens-watches":   "accessories",
	"womens-bags":      "accessories",
	"womens-jewellery": "accessories",
	"sunglasses":       "accessories",
}

var tagMap = map[string][]string{
	"smartphones":      {"tech", "mobile", "device"},
	"laptops":          {"tech", "computer", "work"},
	"fragrances":       {"beauty", "scent", "luxury"},
	"skincare":         {"beauty", "care", "health"},
	"tops":             {"casual", "fashion", "comfortable"},
	"womens-dresses":   {"elegant", "formal", "fashion"},
	"womens-shoes":     {"fashion", "comfortable", "style"},
	"mens-shirts":      {"formal", "casual", "professional"},
	"mens-shoes":       {"formal", "casual", "leather"},
	"womens-bags":      {"accessory", "fashion", "handbag"},
	"womens-jewellery": {"jewelry", "elegant", "gift"},
	"sunglasses":       {"accessory", "protection", "style"},
}

var colorSets = [][]string{
	{"Black", "White", "Gray"},
	{"Navy", "Black", "White"},
	{"Brown", "Tan", "Black"},
	{"Blue", "Red", "Green"},
	{"Pink", "Purple", "White"},
}

// featuredDiscount is the markdown from which a product is featured.
var featuredDiscount = 15.0

func StandardCategories() []model.Category {
	return []model.Category{
		{ID: "1", Name: "Men's Clothing", Slug: "mens-clothing", Image: "/categories/mens-clothing.jpg", Description: "Stylish clothing for men"},
		{ID: "2", Name: "Women's Clothing", Slug: "womens-clothing", Image: "/categories/womens-clothing.jpg", Description: "Fashion-forward clothing for women"},
		{ID: "3", Name: "Accessories", Slug: "accessories", Image: "/categories/accessories.jpg", Description: "Complete your look with accessories"},
		{ID: "4", Name: "Shoes", Slug: "shoes", Image: "/categories/shoes.jpg", Description: "Comfortable and stylish footwear"},
	}
}

func mapProducts(in []dummyProduct) []model.Product {
	out := make([]model.Product, 0, len(in))
	for _, dp := range in {
		out = append(out, mapProduct(dp))
	}
	return out
}

// mapProduct derives every synthetic field from the upstream id so the same
// product always maps to the same value.
func mapProduct(dp dummyProduct) model.Product {
	price := decimal.NewFromFloat(dp.Price).Round(2)

	var original *decimal.Decimal
	if dp.DiscountPercentage > 0 && dp.DiscountPercentage < 100 {
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(dp.DiscountPercentage).Div(decimal.NewFromInt(100)))
		op := decimal.NewFromFloat(dp.Price).Div(factor).Round(2)
		original = &op
	}

	images := dp.Images
	if len(images) == 0 && dp.Thumbnail != "" {
		images = []string{dp.Thumbnail}
	}
	brand := dp.Brand
	if brand == "" {
		brand = "Unknown Brand"
	}
	rating := dp.Rating
	if rating == 0 {
		rating = 4.0
	}

	return model.Product{
		ID:            strconv.Itoa(dp.ID),
		Name:          dp.Title,
		Price:         price,
		OriginalPrice: original,
		Description:   dp.Description,
		Image:         dp.Thumbnail,
		Images:        images,
		Category:      MapCategory(dp.Category),
		Brand:         brand,
		Sizes:         sizesFor(dp.Category),
		Colors:        colorSets[abs(dp.ID)%len(colorSets)],
		InStock:       dp.Stock > 0,
		StockCount:    dp.Stock,
		Rating:        rating,
		ReviewCount:   10 + (abs(dp.ID)*37)%200,
		Featured:      dp.DiscountPercentage >= featuredDiscount,
		Tags:          tagsFor(dp.Category),
	}
}

func MapCategory(upstream string) string {
	if c, ok := categoryMap[upstream]; ok {
		return c
	}
	return "accessories"
}

func sizesFor(category string) []string {
	switch {
	case strings.Contains(category, "clothing"), strings.Contains(category, "shirts"),
		strings.Contains(category, "tops"), strings.Contains(category, "dresses"):
		return []string{"XS", "S", "M", "L", "XL"}
	case strings.Contains(category, "shoes"):
		return []string{"7", "8", "9", "10", "11", "12"}
	}
	return []string{"One Size"}
}

func tagsFor(category string) []string {
	if tags, ok := tagMap[category]; ok {
		return tags
	}
	return []string{"fashion", "style", "quality"}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
