package inventory

import (
	"time"

	"porch-petals/internal/domain"
)

const bouquetImage = "/api/placeholder/300/300"

type bouquetDetails struct {
	Description string
	Flowers     []string
	Colors      []string
	Size        string
	Price       int64
}

var defaultBouquet = bouquetDetails{
	Description: "Beautiful handcrafted bouquet with seasonal flowers.",
	Flowers:     []string{"Seasonal Flowers"},
	Colors:      []string{"Mixed Colors"},
	Size:        "small",
	Price:       12,
}

// bouquetCatalog holds the display details keyed by inventory row name.
var bouquetCatalog = map[string]bouquetDetails{
	"Minnie Zinnie": {
		Description: "Bright and cheerful zinnias in warm sunset colors. Perfect for lifting spirits.",
		Flowers:     []string{"Zinnias", "Baby's Breath"},
		Colors:      []string{"Orange", "Pink", "Yellow"},
		Size:        "small",
		Price:       12,
	},
	"Garden Mix": {
		Description: "A delightful mix of seasonal blooms in soft, romantic pastels.",
		Flowers:     []string{"Lisianthus", "Sweet Peas", "Cosmos"},
		Colors:      []string{"Blush", "Lavender", "Cream"},
		Size:        "full",
		Price:       18,
	},
	"Sunshine Bundle": {
		Description: "Bold sunflowers and cheerful marigolds to brighten any day.",
		Flowers:     []string{"Sunflowers", "Marigolds", "Solidago"},
		Colors:      []string{"Golden Yellow", "Orange"},
		Size:        "full",
		Price:       22,
	},
	"Lisianthus Luxe": {
		Description: "Elegant lisianthus in sophisticated cream and blush tones.",
		Flowers:     []string{"Lisianthus", "White Roses", "Eucalyptus"},
		Colors:      []string{"Cream", "Blush", "White"},
		Size:        "full",
		Price:       25,
	},
	"Cosmos Cascade": {
		Description: "Delicate cosmos flowers creating a dreamy, ethereal display.",
		Flowers:     []string{"Cosmos", "Queen Anne's Lace", "Lavender"},
		Colors:      []string{"Pink", "White", "Purple"},
		Size:        "small",
		Price:       15,
	},
}

// BouquetFromItem maps an inventory row into a catalog bouquet. Unknown names
// get the default details.
func BouquetFromItem(item domain.InventoryItem) domain.Product {
	d, ok := bouquetCatalog[item.Name]
	if !ok {
		d = defaultBouquet
	}
	return domain.Product{
		Kind:          domain.KindBouquet,
		ID:            item.ID,
		Name:          item.Name,
		Description:   d.Description,
		Price:         d.Price,
		Image:         bouquetImage,
		Available:     item.Available,
		TotalCapacity: item.Total,
		Flowers:       append([]string(nil), d.Flowers...),
		Colors:        append([]string(nil), d.Colors...),
		Size:          d.Size,
	}
}

// SampleInventory is the fixed row set served when no inventory source is
// configured or the source fails. Ids are stable across calls.
func SampleInventory(now time.Time) []domain.InventoryItem {
	return []domain.InventoryItem{
		{ID: "mock-1", Name: "Minnie Zinnie", Available: 3, Total: 5, LastUpdated: now},
		{ID: "mock-2", Name: "Garden Mix", Available: 2, Total: 3, LastUpdated: now},
		{ID: "mock-3", Name: "Sunshine Bundle", Available: 1, Total: 2, LastUpdated: now},
	}
}

var houseplants = []domain.Product{
	{
		Kind:        domain.KindHouseplant,
		ID:          "pothos-1",
		Name:        "Pothos",
		Description: "Beautiful trailing vines that thrive in any light",
		Care:        "Low maintenance, water when soil is dry",
		Price:       2,
		Image:       "/images/houseplants/pothos/pothos-main.webp",
		Available:   8,
		PlantType:   "cutting",
	},
	{
		Kind:        domain.KindHouseplant,
		ID:          "philodendron-birkin-1",
		Name:        "Philodendron Birkin",
		Description: "Striking variegated leaves with elegant white stripes",
		Care:        "Bright indirect light, weekly watering",
		Price:       2,
		Image:       "/images/houseplants/philodendron-birkin/philodendron-birkin-main.webp",
		Available:   5,
		PlantType:   "cutting",
	},
	{
		Kind:        domain.KindHouseplant,
		ID:          "rubber-plant-1",
		Name:        "Rubber Plant",
		Description: "Glossy leaves and sturdy growth for statement corners",
		Care:        "Bright light, water when top inch of soil is dry",
		Price:       15,
		Image:       "/images/houseplants/rubber-plant/rubber-plant-main.webp",
		Available:   3,
		PlantType:   "plant",
	},
}
