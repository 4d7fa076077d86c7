package upstream

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/upsync/internal/domain"
)

// Mapper converts upstream wire records to domain products.
type Mapper struct{}

// NewMapper creates a new upstream mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapPage decodes and validates every record of a page.
// Records that fail are returned as rejections; they never abort the page.
func (m *Mapper) MapPage(page int, records []json.RawMessage) ([]domain.ExternalProduct, []domain.RejectedRecord) {
	products := make([]domain.ExternalProduct, 0, len(records))
	var rejected []domain.RejectedRecord

	for i, raw := range records {
		var rec productRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			rejected = append(rejected, domain.RejectedRecord{
				Page:   page,
				Index:  i,
				Code:   peekCode(raw),
				Reason: fmt.Sprintf("%v: %v", domain.ErrInvalidProduct, err),
			})
			continue
		}

		product := m.MapProduct(rec)
		if err := product.Validate(); err != nil {
			rejected = append(rejected, domain.RejectedRecord{
				Page:   page,
				Index:  i,
				Code:   product.Code,
				Reason: err.Error(),
			})
			continue
		}
		products = append(products, product)
	}

	return products, rejected
}

// MapProduct converts a single record. It does not validate.
func (m *Mapper) MapProduct(rec productRecord) domain.ExternalProduct {
	p := domain.ExternalProduct{
		Code:            strings.TrimSpace(string(rec.Code)),
		Label:           strings.TrimSpace(rec.Label),
		CategoryName:    rec.CategoryName,
		SubcategoryName: rec.SubcategoryName,
		Description:     rec.Description,
		Price:           rec.Price.Value,
		Image:           rec.Image,
		HasVariants:     bool(rec.HasVariants),
	}

	for _, img := range rec.ProductImages {
		if img.Image != "" {
			p.ProductImages = append(p.ProductImages, img.Image)
		}
	}

	for _, v := range rec.Variants.AllVariants {
		p.Variants.AllVariants = append(p.Variants.AllVariants, domain.ExternalVariant{
			ColorName: v.ColorName,
			SizeName:  v.SizeName,
		})
	}
	for _, c := range rec.Variants.AvailableColors {
		p.Variants.AvailableColors = append(p.Variants.AvailableColors, c.ColorName)
	}
	for _, s := range rec.Variants.AvailableSizes {
		p.Variants.AvailableSizes = append(p.Variants.AvailableSizes, s.SizeName)
	}

	return p
}

// peekCode extracts the code of a record that failed to decode, for reporting.
func peekCode(raw json.RawMessage) string {
	var probe struct {
		Code flexString `json:"code"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return string(probe.Code)
}
