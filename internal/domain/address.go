package domain

import (
	"strconv"
	"strings"
)

// Country, Province and Locality form the address hierarchy.
type Country struct {
	IDKey int64  `json:"id_key"`
	Name  string `json:"name"`
}

// Province belongs to a country.
type Province struct {
	IDKey   int64    `json:"id_key"`
	Name    string   `json:"name"`
	Country *Country `json:"country,omitempty"`
}

// Locality belongs to a province.
type Locality struct {
	IDKey    int64     `json:"id_key"`
	Name     string    `json:"name"`
	Province *Province `json:"province,omitempty"`
}

// FullName renders "Locality, Province, Country" with missing parts skipped.
func (l Locality) FullName() string {
	parts := []string{l.Name}
	if l.Province != nil {
		parts = append(parts, l.Province.Name)
		if l.Province.Country != nil {
			parts = append(parts, l.Province.Country.Name)
		}
	}
	return strings.Join(parts, ", ")
}

// Address is a customer delivery address.
type Address struct {
	IDKey        int64     `json:"id_key"`
	Name         string    `json:"name"`
	Street       string    `json:"street"`
	StreetNumber int       `json:"street_number"`
	ZipCode      string    `json:"zip_code"`
	LocalityID   int64     `json:"locality_id"`
	Locality     *Locality `json:"locality,omitempty"`
}

// Line is the single-line form used on tickets and boards.
func (a Address) Line() string {
	var b strings.Builder
	b.WriteString(a.Street)
	if a.StreetNumber > 0 {
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(a.StreetNumber))
	}
	if a.Locality != nil && a.Locality.Name != "" {
		b.WriteString(", ")
		b.WriteString(a.Locality.Name)
	}
	return b.String()
}

// AddressInput is the create/update payload for addresses.
type AddressInput struct {
	Name         string `json:"name"`
	Street       string `json:"street"`
	StreetNumber int    `json:"street_number"`
	ZipCode      string `json:"zip_code"`
	LocalityID   int64  `json:"locality_id"`
}
