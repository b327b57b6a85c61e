package catalog

import "github.com/runova/backend/internal/domain"

// defaultProducts is the built-in catalog used when no catalog file can be
// loaded. Coverage is deliberately small: one record per common concern so
// every fallback association in the recommendation pipeline still resolves.
var defaultProducts = []domain.Product{
	{
		Key:         "oily_skin",
		Name:        "CeraVe Foaming Facial Cleanser",
		Description: "Foaming gel cleanser for normal to oily skin with niacinamide and ceramides. Fragrance-free and non-comedogenic.",
		Price:       "$15.99",
		Link:        "https://www.amazon.com/dp/B01N1LL62W",
	},
	{
		Key:         "dry_skin",
		Name:        "CeraVe Moisturizing Cream",
		Description: "Rich moisturizer for dry to very dry skin with hyaluronic acid and three essential ceramides. Fragrance-free.",
		Price:       "$17.48",
		Link:        "https://www.amazon.com/dp/B00TTD9BRC",
	},
	{
		Key:         "acne",
		Name:        "CeraVe Acne Control Cleanser",
		Description: "Acne treatment face wash with 2% salicylic acid to clear breakouts and blackheads. Fragrance-free.",
		Price:       "$14.99",
		Link:        "https://www.amazon.com/dp/B08KPZDGN8",
	},
	{
		Key:         "sensitive",
		Name:        "Vanicream Daily Facial Moisturizer",
		Description: "Lightweight lotion for sensitive skin with ceramides and hyaluronic acid. Fragrance-free, gluten-free and free of dyes.",
		Price:       "$13.79",
		Link:        "https://www.amazon.com/dp/B07KGF1KXB",
	},
	{
		Key:         "aging",
		Name:        "CeraVe Skin Renewing Retinol Serum",
		Description: "Anti-aging retinol serum that smooths fine lines and improves texture. Fragrance-free.",
		Price:       "$19.97",
		Link:        "https://www.amazon.com/dp/B07W45V6MQ",
	},
	{
		Key:         "sunscreen",
		Name:        "La Roche-Posay Anthelios Sunscreen SPF 60",
		Description: "Melt-in milk sunscreen with broad spectrum SPF 60 for face and body. Oil-free and oxybenzone-free.",
		Price:       "$25.99",
		Link:        "https://www.amazon.com/dp/B002CML1XE",
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(defaultProducts)
}
