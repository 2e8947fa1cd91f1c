package cli

import (
	"fmt"
	"strings"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/service/output"
)

func profileData(profile domain.UserProfile) map[string]any {
	phones := make([]any, 0, len(profile.PhoneNumbers))
	for _, phone := range profile.Phones() {
		phones = append(phones, phone)
	}
	data := map[string]any{
		"id":            profile.ID,
		"user_type":     string(profile.UserType),
		"email":         profile.Email,
		"phone_numbers": phones,
		"addresses":     addressRows(profile.Addresses),
	}
	if profile.IsMerchant() {
		data["brand_name"] = profile.BrandName
		data["market_name"] = profile.MarketName
		data["mall_name"] = profile.MallName
	} else {
		data["first_name"] = profile.FirstName
		data["last_name"] = profile.LastName
		data["date_of_birth"] = profile.DateOfBirth
	}
	return data
}

func addressRows(addresses []domain.Address) []any {
	rows := make([]any, 0, len(addresses))
	for i, address := range addresses {
		rows = append(rows, map[string]any{
			"position":    i + 1,
			"name":        address.Name,
			"address":     address.Address,
			"city":        address.City,
			"state":       address.State,
			"country":     address.Country,
			"zip_code":    address.ZipCode,
			"postal_code": address.PostalCode,
		})
	}
	return rows
}

func renderProfileTable(title string, data map[string]any) string {
	headers := []string{"Field", "Value"}
	rows := [][]string{
		{"ID", fallbackString(asString(data["id"]), "-")},
		{"User type", fallbackString(asString(data["user_type"]), "-")},
		{"Email", fallbackString(asString(data["email"]), "-")},
	}
	if asString(data["user_type"]) == string(domain.UserTypeMerchant) {
		rows = append(rows,
			[]string{"Brand name", fallbackString(asString(data["brand_name"]), "-")},
			[]string{"Market", fallbackString(asString(data["market_name"]), "-")},
			[]string{"Mall", fallbackString(asString(data["mall_name"]), "-")},
		)
	} else {
		rows = append(rows,
			[]string{"First name", fallbackString(asString(data["first_name"]), "-")},
			[]string{"Last name", fallbackString(asString(data["last_name"]), "-")},
			[]string{"Date of birth", fallbackString(asString(data["date_of_birth"]), "-")},
		)
	}
	for i, phone := range asSlice(data["phone_numbers"]) {
		rows = append(rows, []string{fmt.Sprintf("Phone %d", i+1), fallbackString(asString(phone), "-")})
	}
	for _, value := range asSlice(data["addresses"]) {
		row := asMap(value)
		rows = append(rows, []string{fmt.Sprintf("Address %d", asInt(row["position"])), formatAddress(row)})
	}
	if updated := asString(data["updated"]); updated != "" {
		rows = append(rows, []string{"Updated", updated})
	}
	return output.RenderTable(title, headers, rows)
}

func formatAddress(row map[string]any) string {
	parts := make([]string, 0, 6)
	for _, key := range []string{"name", "address", "city", "state", "country"} {
		if value := strings.TrimSpace(asString(row[key])); value != "" {
			parts = append(parts, value)
		}
	}
	code := strings.TrimSpace(asString(row["zip_code"]))
	if code == "" {
		code = strings.TrimSpace(asString(row["postal_code"]))
	}
	if code != "" {
		parts = append(parts, code)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func fallbackString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func boolToYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
