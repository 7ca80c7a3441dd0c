package catalog

import "github.com/epitome-ke/storefront-checkout/internal/money"

type Category struct {
	ID           string
	Name         string
	Slug         string
	Gender       string
	DisplayOrder int
	Description  string
	Image        string
}

type Product struct {
	ID           string
	Name         string
	Slug         string
	Description  string
	ShortDesc    string
	Price        money.Cents
	ComparePrice money.Cents
	SKU          string
	CategoryID   string
	Brand        string
	Stock        int
	Featured     bool
	Tags         string
	Image        string
	Variants     []Variant
}

type Variant struct {
	ID       string
	Size     string
	Color    string
	ColorHex string
	Stock    int
	Price    money.Cents
	SKU      string
}

var Categories = []Category{
	{ID: "cat-women-clothing", Name: "Clothing", Slug: "women-clothing", Gender: "FEMALE", DisplayOrder: 1, Description: "Premium women's clothing collection", Image: "/categories/women-clothing.jpg"},
	{ID: "cat-women-bags", Name: "Bags", Slug: "women-bags", Gender: "FEMALE", DisplayOrder: 2, Description: "Luxury handbags and accessories", Image: "/categories/women-bags.jpg"},
	{ID: "cat-men-clothing", Name: "Clothing", Slug: "men-clothing", Gender: "MALE", DisplayOrder: 3, Description: "Premium men's clothing collection", Image: "/categories/men-clothing.jpg"},
	{ID: "cat-men-accessories", Name: "Accessories", Slug: "men-accessories", Gender: "MALE", DisplayOrder: 4, Description: "Men's luxury accessories", Image: "/categories/men-accessories.jpg"},
}

func kes(units int64) money.Cents { return money.FromUnits(units) }

// variant builds a size/colour variant whose id and sku derive from the
// product sku.
func variant(sku, code, size, color, hex string, stock int, price money.Cents) Variant {
	id := sku + "-" + code
	return Variant{ID: id, SKU: id, Size: size, Color: color, ColorHex: hex, Stock: stock, Price: price}
}

func dressVariants(sku string, price money.Cents) []Variant {
	return []Variant{
		variant(sku, "S-BLK", "S", "Black", "#000000", 5, price),
		variant(sku, "M-BLK", "M", "Black", "#000000", 5, price),
		variant(sku, "L-NVY", "L", "Navy", "#1a1a2e", 5, price),
		variant(sku, "M-WHT", "M", "White", "#ffffff", 3, price),
	}
}

func bagVariants(sku string, price money.Cents) []Variant {
	return []Variant{
		variant(sku, "M-BRN", "Medium", "Brown", "#8b4513", 10, price),
		variant(sku, "M-BLK", "Medium", "Black", "#000000", 10, price),
		variant(sku, "L-BLK", "Large", "Black", "#000000", 5, price+kes(1000)),
	}
}

var Products = []Product{
	{
		ID: "WD001", Name: "Elegant Evening Dress", Slug: "elegant-evening-dress",
		Description: "A stunning evening dress perfect for special occasions. Made with premium fabric and attention to detail.",
		ShortDesc:   "Premium evening dress for special occasions",
		Price:       kes(8500), ComparePrice: kes(10000), SKU: "WD001", CategoryID: "cat-women-clothing",
		Brand: "Epitome", Stock: 15, Featured: true, Tags: "dress,evening,formal,elegant",
		Image:    "https://picsum.photos/seed/dress1/800/1000",
		Variants: dressVariants("WD001", kes(8500)),
	},
	{
		ID: "WB001", Name: "Designer Handbag Collection", Slug: "designer-handbag-collection",
		Description: "Premium leather handbag crafted by skilled artisans. Perfect for both casual and formal occasions.",
		ShortDesc:   "Premium leather handbag for everyday elegance",
		Price:       kes(12000), ComparePrice: kes(15000), SKU: "WB001", CategoryID: "cat-women-bags",
		Brand: "Epitome", Stock: 20, Featured: true, Tags: "handbag,leather,luxury,designer",
		Image:    "https://picsum.photos/seed/bag1/800/1000",
		Variants: bagVariants("WB001", kes(12000)),
	},
	{
		ID: "MS001", Name: "Premium Men's Suit", Slug: "premium-mens-suit",
		Description: "Tailored to perfection, this premium suit combines classic style with modern fit.",
		ShortDesc:   "Premium tailored suit for the modern gentleman",
		Price:       kes(25000), ComparePrice: kes(30000), SKU: "MS001", CategoryID: "cat-men-clothing",
		Brand: "Epitome", Stock: 12, Featured: true, Tags: "suit,formal,premium,tailored",
		Image: "https://picsum.photos/seed/suit1/800/1000",
		Variants: []Variant{
			variant("MS001", "38-CHR", "38", "Charcoal", "#36454f", 3, kes(25000)),
			variant("MS001", "40-CHR", "40", "Charcoal", "#36454f", 4, kes(25000)),
			variant("MS001", "42-NVY", "42", "Navy", "#1a1a2e", 4, kes(25000)),
			variant("MS001", "44-BLK", "44", "Black", "#000000", 4, kes(25000)),
			variant("MS001", "46-BLK", "46", "Black", "#000000", 2, kes(25000)),
		},
	},
	{
		ID: "MA001", Name: "Luxury Watch Collection", Slug: "luxury-watch-collection",
		Description: "Sophisticated timepiece that combines elegance with precision.",
		ShortDesc:   "Sophisticated luxury watch for discerning gentlemen",
		Price:       kes(18000), SKU: "MA001", CategoryID: "cat-men-accessories",
		Brand: "Epitome", Stock: 8, Featured: true, Tags: "watch,luxury,timepiece,accessories",
		Image: "https://picsum.photos/seed/watch1/800/1000",
		Variants: []Variant{
			variant("MA001", "STD-GLD", "Standard", "Gold", "#ffd700", 4, kes(18000)),
			variant("MA001", "STD-SLV", "Standard", "Silver", "#c0c0c0", 4, kes(18000)),
			variant("MA001", "STD-RG", "Standard", "Rose Gold", "#e8b4a0", 2, kes(20000)),
		},
	},
	{
		ID: "WD002", Name: "Casual Summer Dress", Slug: "casual-summer-dress",
		Description: "Light and breezy summer dress perfect for casual outings and warm weather.",
		ShortDesc:   "Comfortable summer dress for everyday wear",
		Price:       kes(4500), ComparePrice: kes(5500), SKU: "WD002", CategoryID: "cat-women-clothing",
		Brand: "Epitome", Stock: 25, Featured: true, Tags: "dress,summer,casual,comfortable",
		Image:    "https://picsum.photos/seed/dress2/800/1000",
		Variants: dressVariants("WD002", kes(4500)),
	},
	{
		ID: "MB001", Name: "Executive Briefcase", Slug: "executive-briefcase",
		Description: "Professional leather briefcase designed for the modern executive.",
		ShortDesc:   "Premium leather briefcase for professionals",
		Price:       kes(15000), ComparePrice: kes(18000), SKU: "MB001", CategoryID: "cat-men-accessories",
		Brand: "Epitome", Stock: 10, Tags: "briefcase,leather,professional,executive",
		Image:    "https://picsum.photos/seed/briefcase1/800/1000",
		Variants: bagVariants("MB001", kes(15000)),
	},
}
