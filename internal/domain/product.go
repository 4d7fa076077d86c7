package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// TargetProduct is a product as seen through the Shopify Admin REST API.
//
// The same shape carries create and update payloads. The shopify client decides which
// empty fields go on the wire.
type TargetProduct struct {
	// ID is assigned by Shopify and never changes once created.
	ID int64 `json:"id,omitempty"`

	Title       string    `json:"title,omitempty"`
	ProductType string    `json:"product_type,omitempty"`
	BodyHTML    string    `json:"body_html,omitempty"`
	Tags        TagList   `json:"tags,omitempty"`
	Images      []Image   `json:"images,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
	Published   *bool     `json:"published,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Image is a product image reference.
type Image struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src"`
}

// Option is a named list of values, e.g. Color: [Red, Blue].
type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Variant is a purchasable combination of option values.
// Option2 is omitted entirely when empty.
type Variant struct {
	ID      int64   `json:"id,omitempty"`
	Title   *string `json:"title,omitempty"`
	Option1 string  `json:"option1"`
	Option2 string  `json:"option2,omitempty"`
	Price   string  `json:"price,omitempty"`
}

// OptionPair identifies a variant by its resolved option values.
type OptionPair struct {
	Option1 string
	Option2 string
}

// Pair returns the option pair of the variant.
func (v Variant) Pair() OptionPair {
	return OptionPair{Option1: v.Option1, Option2: v.Option2}
}

// Bool returns a pointer to b, for optional payload fields.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s, for optional payload fields.
func String(s string) *string { return &s }

// TagList is a list of product tags.
//
// Shopify returns tags as a single comma separated string and accepts the same form on
// writes, so the list is encoded that way on the wire.
type TagList []string

func (t TagList) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.Join(t, ", "))
}

func (t *TagList) UnmarshalJSON(data []byte) error {
	var joined string
	if err := json.Unmarshal(data, &joined); err == nil {
		*t = splitTags(joined)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = list
	return nil
}

func splitTags(s string) TagList {
	if strings.TrimSpace(s) == "" {
		return TagList{}
	}
	raw := strings.Split(s, ",")
	tags := make(TagList, 0, len(raw))
	for _, tag := range raw {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
