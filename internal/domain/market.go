package domain

import (
	"fmt"
	"strings"
)

// Market is a physical market a merchant can be affiliated with.
type Market struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// Mall is a shopping mall a merchant can be affiliated with.
type Mall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// NormalizeID normalizes mixed payload id values.
func NormalizeID(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		if oid, ok := t["$oid"].(string); ok {
			return oid
		}
		return fmt.Sprint(t)
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

// FindMarketByName matches a market case-insensitively.
func FindMarketByName(markets []Market, name string) (Market, bool) {
	want := strings.TrimSpace(name)
	for _, market := range markets {
		if strings.EqualFold(strings.TrimSpace(market.Name), want) {
			return market, true
		}
	}
	return Market{}, false
}

// MarketName resolves a market id to its name.
func MarketName(markets []Market, id string) string {
	for _, market := range markets {
		if market.ID == id {
			return market.Name
		}
	}
	return ""
}

// FindMallByName matches a mall case-insensitively.
func FindMallByName(malls []Mall, name string) (Mall, bool) {
	want := strings.TrimSpace(name)
	for _, mall := range malls {
		if strings.EqualFold(strings.TrimSpace(mall.Name), want) {
			return mall, true
		}
	}
	return Mall{}, false
}
