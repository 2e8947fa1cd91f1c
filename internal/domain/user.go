package domain

import (
	"encoding/json"
	"strings"
)

// UserType selects the customer or merchant variant of the marketplace API.
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeMerchant UserType = "merchant"
)

// ParseUserType normalizes user type values, defaulting to customer.
func ParseUserType(v string) UserType {
	if strings.EqualFold(strings.TrimSpace(v), string(UserTypeMerchant)) {
		return UserTypeMerchant
	}
	return UserTypeCustomer
}

// MaxAddresses caps the address list of a merchant profile.
const MaxAddresses = 2

// MaxPhoneNumbers caps the phone list of any profile.
const MaxPhoneNumbers = 2

// Address is a postal address attached to a profile.
type Address struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	ZipCode    string `json:"zipCode"`
	PostalCode string `json:"postalCode"`
}

// Code returns the zip or postal code, whichever is set.
func (a Address) Code() string {
	if a.ZipCode != "" {
		return a.ZipCode
	}
	return a.PostalCode
}

// IsBlank reports whether no field has been filled in.
func (a Address) IsBlank() bool {
	return a == Address{}
}

// PhoneNumber is a single profile phone entry.
type PhoneNumber struct {
	Number string `json:"number"`
}

// UnmarshalJSON accepts both {"number": "..."} objects and bare strings.
func (p *PhoneNumber) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		p.Number = raw
		return nil
	}
	type plain PhoneNumber
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = PhoneNumber(decoded)
	return nil
}

// UserProfile is the marketplace account profile owned by application state.
type UserProfile struct {
	ID           string        `json:"id"`
	UserType     UserType      `json:"userType"`
	Email        string        `json:"email"`
	FirstName    string        `json:"firstName,omitempty"`
	LastName     string        `json:"lastName,omitempty"`
	BrandName    string        `json:"brandName,omitempty"`
	PhoneNumbers []PhoneNumber `json:"phoneNumbers"`
	DateOfBirth  string        `json:"dateOfBirth,omitempty"`
	MarketID     string        `json:"marketId,omitempty"`
	MarketName   string        `json:"marketName,omitempty"`
	MallName     string        `json:"mallName,omitempty"`
	Addresses    []Address     `json:"addresses"`
}

// UnmarshalJSON accepts "_id" as an alias of "id".
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	aux := struct {
		*plain
		LegacyID any `json:"_id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = NormalizeID(aux.LegacyID)
	}
	if u.UserType == "" {
		u.UserType = UserTypeCustomer
	}
	return nil
}

// IsMerchant reports whether the profile uses the merchant variant.
func (u UserProfile) IsMerchant() bool {
	return u.UserType == UserTypeMerchant
}

// Phones returns phone numbers as plain strings.
func (u UserProfile) Phones() []string {
	out := make([]string, 0, len(u.PhoneNumbers))
	for _, phone := range u.PhoneNumbers {
		out = append(out, phone.Number)
	}
	return out
}

// Phone returns the phone number at index or an empty string.
func (u UserProfile) Phone(index int) string {
	if index < 0 || index >= len(u.PhoneNumbers) {
		return ""
	}
	return u.PhoneNumbers[index].Number
}

// Clone returns a deep copy safe to hand to another owner.
func (u UserProfile) Clone() UserProfile {
	out := u
	if u.PhoneNumbers != nil {
		out.PhoneNumbers = append([]PhoneNumber(nil), u.PhoneNumbers...)
	}
	if u.Addresses != nil {
		out.Addresses = append([]Address(nil), u.Addresses...)
	}
	return out
}
