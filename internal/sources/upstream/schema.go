package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// pageResponse is the body of POST /all-products.
type pageResponse struct {
	Data    []json.RawMessage `json:"data"`
	NextURL *string           `json:"next_url"`
}

// productRecord is one upstream product as it appears on the wire.
type productRecord struct {
	Code            flexString     `json:"code"`
	Label           string         `json:"label"`
	CategoryName    string         `json:"category_name"`
	SubcategoryName string         `json:"subcategory_name"`
	Description     string         `json:"product_description"`
	Price           flexNumber     `json:"price"`
	Image           string         `json:"image"`
	ProductImages   []imageRecord  `json:"product_images"`
	HasVariants     flexBool       `json:"has_variants"`
	Variants        variantsRecord `json:"variants"`
}

type imageRecord struct {
	Image string `json:"image"`
}

type variantsRecord struct {
	AllVariants     []variantRecord `json:"all_variants"`
	AvailableColors []colorRecord   `json:"available_colors"`
	AvailableSizes  []sizeRecord    `json:"available_sizes"`
}

type variantRecord struct {
	ColorName string `json:"color_name"`
	SizeName  string `json:"size_name"`
}

type colorRecord struct {
	ColorName string `json:"color_name"`
}

type sizeRecord struct {
	SizeName string `json:"size_name"`
}

// flexNumber accepts a JSON number, a numeric string or null.
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("price %q is not numeric", s)
		}
		n.Value, n.Set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("price is not numeric: %w", err)
	}
	n.Value, n.Set = v, true
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("code must be a string or number: %w", err)
	}
	*s = flexString(num.String())
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch strings.ToLower(raw) {
	case "true", "1":
		*b = true
	case "false", "0", "", "null":
		*b = false
	default:
		return fmt.Errorf("has_variants %q is not a boolean", raw)
	}
	return nil
}
