package loam

import (
	"encoding/json"
	"strconv"
)

// PageMetadata represents the frontmatter of a content page.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type PageMetadata struct {
	ID    string `json:"id" mapstructure:"id"`
	Title string `json:"title" mapstructure:"title"`
	// Order sorts the page in listings. Strict repositories hand numbers over
	// as json.Number, so any numeric shape is accepted.
	Order any `json:"order" mapstructure:"order"`
}

func (m PageMetadata) order() int {
	switch v := m.Order.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
