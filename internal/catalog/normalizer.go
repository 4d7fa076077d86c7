package catalog

import (
	"math"
	"strconv"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

const (
	optionColor = "Color"
	optionSize  = "Size"
)

// NormalizeVariants turns the upstream variant description into Shopify options and
// variants. Variants never share an (option1, option2) pair. A size without a color
// goes to option1.
func NormalizeVariants(p domain.ExternalProduct) ([]domain.Option, []domain.Variant) {
	price := FormatPrice(p.Price)

	if !p.HasVariants {
		return []domain.Option{}, []domain.Variant{{
			Title:   domain.String(""),
			Option1: "",
			Price:   price,
		}}
	}

	seen := make(map[domain.OptionPair]struct{}, len(p.Variants.AllVariants))
	variants := make([]domain.Variant, 0, len(p.Variants.AllVariants))
	for _, v := range p.Variants.AllVariants {
		var pair domain.OptionPair
		switch {
		case v.ColorName != "" && v.SizeName != "":
			pair = domain.OptionPair{Option1: v.ColorName, Option2: v.SizeName}
		case v.ColorName != "":
			pair = domain.OptionPair{Option1: v.ColorName}
		case v.SizeName != "":
			pair = domain.OptionPair{Option1: v.SizeName}
		}

		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		variants = append(variants, domain.Variant{
			Option1: pair.Option1,
			Option2: pair.Option2,
			Price:   price,
		})
	}

	options := make([]domain.Option, 0, 2)
	if len(p.Variants.AvailableColors) > 0 {
		options = append(options, domain.Option{Name: optionColor, Values: p.Variants.AvailableColors})
	}
	if len(p.Variants.AvailableSizes) > 0 {
		options = append(options, domain.Option{Name: optionSize, Values: p.Variants.AvailableSizes})
	}

	return options, variants
}

// BuildCreatePayload builds the product sent on first sync.
func BuildCreatePayload(p domain.ExternalProduct) domain.TargetProduct {
	options, variants := NormalizeVariants(p)
	return domain.TargetProduct{
		Title:       p.Label,
		ProductType: p.ProductType(),
		BodyHTML:    p.Description,
		Tags:        p.Tags(),
		Images:      p.ImageList(),
		Options:     options,
		Variants:    variants,
		Published:   domain.Bool(true),
	}
}

// BuildUpdatePayload builds the update for an existing product. Options and variants
// are left untouched on the target.
func BuildUpdatePayload(id int64, p domain.ExternalProduct) domain.TargetProduct {
	return domain.TargetProduct{
		ID:          id,
		Title:       p.Label,
		ProductType: p.ProductType(),
		BodyHTML:    p.Description,
		Tags:        p.Tags(),
		Images:      p.ImageList(),
	}
}

// NeedsUpdate compares the fields a sync owns. Prices are compared on the integer part
// of both sides: a fractional upstream price such as 19.5 equals a stored 19.99. Flooring
// only the stored price would rewrite every product with a fractional upstream price on
// every run.
func NeedsUpdate(existing domain.TargetProduct, p domain.ExternalProduct) bool {
	return existing.Title != p.Label ||
		existing.ProductType != p.ProductType() ||
		existing.BodyHTML != p.Description ||
		!samePrice(existing, p.Price)
}

func samePrice(existing domain.TargetProduct, price float64) bool {
	if len(existing.Variants) == 0 {
		return false
	}
	current, err := strconv.ParseFloat(existing.Variants[0].Price, 64)
	if err != nil {
		return false
	}
	return math.Floor(current) == math.Floor(price)
}

// FormatPrice renders a price the way Shopify stores it.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
