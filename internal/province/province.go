// Package province contains the closed catalog of province codes an
// upload may declare.
package province

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"slices"
)

// ErrEmptyCatalog indicates that a catalog contains no codes.
var ErrEmptyCatalog = errors.New("province: empty catalog")

// Catalog is the closed set of valid province codes.
type Catalog interface {
	// Codes returns the valid codes. The caller must not modify
	// the returned slice.
	Codes() []string
}

// Static is a [Catalog] backed by a fixed list of codes.
type Static []string

var _ Catalog = Static{}

// Codes implements Catalog.
func (s Static) Codes() []string {
	return s
}

// codes contains the codes of the Italian provinces.
var codes = []string{
	"AG", "AL", "AN", "AO", "AP", "AQ", "AR", "AT", "AV", "BA",
	"BG", "BI", "BL", "BN", "BO", "BR", "BS", "BT", "BZ", "CA",
	"CB", "CE", "CH", "CL", "CN", "CO", "CR", "CS", "CT", "CZ",
	"EN", "FC", "FE", "FG", "FI", "FM", "FR", "GE", "GO", "GR",
	"IM", "IS", "KR", "LC", "LE", "LI", "LO", "LT", "LU", "MB",
	"MC", "ME", "MI", "MN", "MO", "MS", "MT", "NA", "NO", "NU",
	"OR", "PA", "PC", "PD", "PE", "PG", "PI", "PN", "PO", "PR",
	"PT", "PU", "PV", "PZ", "RA", "RC", "RE", "RG", "RI", "RM",
	"RN", "RO", "SA", "SI", "SO", "SP", "SR", "SS", "SU", "SV",
	"TA", "TE", "TN", "TO", "TP", "TR", "TS", "TV", "UD", "VA",
	"VB", "VC", "VE", "VI", "VR", "VT", "VV",
}

// Default returns the catalog of all the Italian provinces.
func Default() Catalog {
	return Static(codes)
}

// Valid returns whether code belongs to catalog.
func Valid(catalog Catalog, code string) bool {
	return slices.Contains(catalog.Codes(), code)
}

// Restrict returns a catalog containing only the codes of catalog that
// are also listed in allowed. An empty allowed list returns catalog.
func Restrict(catalog Catalog, allowed []string) (Catalog, error) {
	if len(allowed) <= 0 {
		return catalog, nil
	}
	var out Static
	for _, code := range allowed {
		if !Valid(catalog, code) {
			return nil, fmt.Errorf("province: unknown code: %s", code)
		}
		if !slices.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out, nil
}

// Random returns a code drawn uniformly from catalog reading randomness
// from r. When r is nil we use crypto/rand.
func Random(catalog Catalog, r io.Reader) (string, error) {
	all := catalog.Codes()
	if len(all) <= 0 {
		return "", ErrEmptyCatalog
	}
	if r == nil {
		r = rand.Reader
	}
	idx, err := rand.Int(r, big.NewInt(int64(len(all))))
	if err != nil {
		return "", err
	}
	return all[idx.Int64()], nil
}
