package suggest

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

// Parse normalizes a remote payload into an Index.
//
// Two shapes are accepted: a flat array of rows
//
//	[{"kind": "location", "value": "Tampa, Florida", "frequency": 2}, ...]
//
// and an object that is already normalized
//
//	{"location": [...], "creditTo": [...], "tag": [...]}
//
// A category missing from the object is treated as empty.
func Parse(payload []byte) (*Index, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidPayload)
	}
	root := gjson.ParseBytes(payload)
	switch {
	case root.IsArray():
		return NewIndex(listsFromRows(root)), nil
	case root.IsObject():
		return NewIndex(listsFromObject(root)), nil
	}
	return nil, fmt.Errorf("%w: expected array or object, got %s", ErrInvalidPayload, root.Type)
}

func listsFromRows(root gjson.Result) Lists {
	var lists Lists
	skipped := 0
	root.ForEach(func(_, row gjson.Result) bool {
		value := row.Get("value")
		if value.Type != gjson.String {
			skipped++
			return true
		}
		r := Row{
			Kind:      row.Get("kind").String(),
			Value:     value.String(),
			Frequency: int(row.Get("frequency").Int()),
		}
		if !appendRow(&lists, r) {
			skipped++
		}
		return true
	})
	if skipped > 0 {
		log.Debugf("Skipped %d suggestion rows with unknown kind or non-string value", skipped)
	}
	return lists
}

// appendRow files r under its category. Frequency does not affect order.
func appendRow(lists *Lists, r Row) bool {
	c, err := ParseCategory(r.Kind)
	if err != nil {
		return false
	}
	switch c {
	case Location:
		lists.Location = append(lists.Location, r.Value)
	case CreditTo:
		lists.CreditTo = append(lists.CreditTo, r.Value)
	case Tag:
		lists.Tag = append(lists.Tag, r.Value)
	}
	return true
}

func listsFromObject(root gjson.Result) Lists {
	return Lists{
		Location: stringArray(root.Get("location")),
		CreditTo: stringArray(firstExisting(root, "creditTo", "credit_to")),
		Tag:      stringArray(root.Get("tag")),
	}
}

func firstExisting(root gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := root.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func stringArray(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	out := make([]string, 0, len(r.Array()))
	for _, v := range r.Array() {
		if v.Type == gjson.String {
			out = append(out, v.String())
		}
	}
	return out
}
