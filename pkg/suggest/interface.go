// Package suggest is the core, holding the normalized suggestion lists and the word-start filtering over them.
package suggest

import (
	"errors"
	"fmt"
)

// Category names one of the three suggestion groupings.
type Category string

const (
	Location Category = "location"
	CreditTo Category = "creditTo"
	Tag      Category = "tag"
)

// Categories lists every category in display order.
var Categories = []Category{Location, CreditTo, Tag}

var (
	// ErrUnknownCategory is returned when a category name is not recognized.
	ErrUnknownCategory = errors.New("unknown suggestion category")
	// ErrInvalidPayload is returned when a remote payload is neither a row
	// list nor a normalized object.
	ErrInvalidPayload = errors.New("invalid suggestion payload")
)

// ParseCategory maps wire and config spellings onto a Category.
// The server splits tags across the "what" and "express" fields, both of
// which fold into Tag.
func ParseCategory(name string) (Category, error) {
	switch name {
	case "location":
		return Location, nil
	case "creditTo", "credit_to":
		return CreditTo, nil
	case "tag", "what", "express":
		return Tag, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Row is one raw suggestion row as served by the remote source.
type Row struct {
	Kind      string `json:"kind" msgpack:"kind"`
	Value     string `json:"value" msgpack:"value"`
	Frequency int    `json:"frequency" msgpack:"frequency"`
}

// Lists is the normalized form of the suggestion data.
type Lists struct {
	Location []string `json:"location" msgpack:"location"`
	CreditTo []string `json:"creditTo" msgpack:"creditTo"`
	Tag      []string `json:"tag" msgpack:"tag"`
}

// Get returns the list for c.
func (l Lists) Get(c Category) []string {
	switch c {
	case Location:
		return l.Location
	case CreditTo:
		return l.CreditTo
	case Tag:
		return l.Tag
	}
	return nil
}

// Result is the composite answer of FilterAll.
type Result = Lists

// Count returns the total number of values across all categories.
func (l Lists) Count() int {
	return len(l.Location) + len(l.CreditTo) + len(l.Tag)
}

// Filterer serves word-start suggestions per category.
type Filterer interface {
	// FilterCategory returns up to limit values of c that word-start match query.
	FilterCategory(c Category, query string, limit int) ([]string, error)

	// FilterAll applies FilterCategory to every category.
	FilterAll(query string, perCategoryLimit int) Result
}
