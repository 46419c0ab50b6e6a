package suggest

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIndex() *Index {
	return NewIndex(Lists{
		Location: []string{
			"Gulfport Art Walk, Florida",
			"Tampa, Florida",
			"Stewart Hall (Art Dept.)",
			"St. Petersburg, Florida",
			"tampa, florida",
			"Tampa, Florida",
			"Art Basel — Miami",
		},
		CreditTo: []string{"Mrs. Smith's 3rd Grade", "Art Club", "Smithfield Scouts"},
		Tag:      []string{"get-well", "art", "birthday", "Get Well"},
	})
}

func TestFilterCategoryWordStart(t *testing.T) {
	idx := NewIndex(Lists{Location: []string{
		"Gulfport Art Walk, Florida",
		"Tampa, Florida",
	}})

	got, err := idx.FilterCategory(Location, "art", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gulfport Art Walk, Florida"}, got)
}

func TestFilterCategoryCases(t *testing.T) {
	idx := sampleIndex()

	testCases := []struct {
		category    Category
		query       string
		limit       int
		expected    []string
		description string
	}{
		{Location, "art", 10, []string{"Gulfport Art Walk, Florida", "Stewart Hall (Art Dept.)", "Art Basel — Miami"}, "Mid-word 'art' in Stewart is skipped"},
		{Location, "ART", 10, []string{"Gulfport Art Walk, Florida", "Stewart Hall (Art Dept.)", "Art Basel — Miami"}, "Case insensitive"},
		{Location, "  art  ", 1, []string{"Gulfport Art Walk, Florida"}, "Trimmed and capped"},
		{Location, "dept", 10, []string{"Stewart Hall (Art Dept.)"}, "After a space inside parentheses"},
		{Location, "miami", 10, []string{"Art Basel — Miami"}, "After an em dash and space"},
		{Location, "florida", 10, []string{"Gulfport Art Walk, Florida", "Tampa, Florida", "St. Petersburg, Florida", "tampa, florida"}, "Source order kept"},
		{Location, "art walk", 10, []string{"Gulfport Art Walk, Florida"}, "Multi-word query"},
		{Location, "alk", 10, []string{}, "Mid-word only"},
		{Location, "petersburg", 10, []string{"St. Petersburg, Florida"}, "After a period and space"},
		{CreditTo, "smith", 10, []string{"Mrs. Smith's 3rd Grade", "Smithfield Scouts"}, "Prefix of a longer word"},
		{CreditTo, "s", 10, []string{"Mrs. Smith's 3rd Grade", "Smithfield Scouts"}, "After an apostrophe"},
		{Tag, "well", 10, []string{"get-well", "Get Well"}, "After a hyphen"},
		{Tag, "zzz", 10, []string{}, "No match"},
		{Tag, "art", 0, []string{}, "Zero limit"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got, err := idx.FilterCategory(tc.category, tc.query, tc.limit)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFilterCategoryBrowse(t *testing.T) {
	idx := NewIndex(Lists{Tag: []string{"a", "b", "a", "c", "d", "b", "e"}})

	got, err := idx.FilterCategory(Tag, "", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, err = idx.FilterCategory(Tag, "   ", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestFilterCategoryUnknown(t *testing.T) {
	_, err := sampleIndex().FilterCategory(Category("voices"), "a", 3)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestFilterCategoryReturnsCopy(t *testing.T) {
	idx := sampleIndex()
	got, err := idx.FilterCategory(Tag, "", 2)
	require.NoError(t, err)
	got[0] = "mutated"

	again, err := idx.FilterCategory(Tag, "", 2)
	require.NoError(t, err)
	assert.Equal(t, "get-well", again[0])
}

func TestFilterAll(t *testing.T) {
	res := sampleIndex().FilterAll("art", 2)

	assert.Equal(t, []string{"Gulfport Art Walk, Florida", "Stewart Hall (Art Dept.)"}, res.Location)
	assert.Equal(t, []string{"Art Club"}, res.CreditTo)
	assert.Equal(t, []string{"art"}, res.Tag)
	assert.Equal(t, 4, res.Count())
}

func TestNewIndexDeduplicates(t *testing.T) {
	idx := NewIndex(Lists{Location: []string{" Tampa ", "Tampa", "", "Caf\u00e9", "Cafe\u0301"}})
	assert.Equal(t, []string{"Tampa", "Caf\u00e9"}, idx.Snapshot().Location)
	assert.Empty(t, idx.Snapshot().Tag)
}

// Every returned value must contain the query at position 0 or right after
// a separator, and never exceed the limit.
func TestFilterCategoryProperties(t *testing.T) {
	idx := sampleIndex()
	queries := []string{"a", "ar", "art", "f", "fl", "s", "st", "t", "w", "g", "3", "(", "-", "miami", "smith's"}

	for _, c := range Categories {
		for _, q := range queries {
			for _, limit := range []int{1, 2, 5, 100} {
				t.Run(fmt.Sprintf("%s/%s/%d", c, q, limit), func(t *testing.T) {
					got, err := idx.FilterCategory(c, q, limit)
					require.NoError(t, err)
					assert.LessOrEqual(t, len(got), limit)
					for _, v := range got {
						assert.True(t, isWordStartMatch(v, q), "%q should word-start match %q", v, q)
					}
				})
			}
		}
	}
}

func isWordStartMatch(value, query string) bool {
	lv, lq := strings.ToLower(value), strings.ToLower(query)
	for i := 0; i <= len(lv)-len(lq); i++ {
		if !strings.HasPrefix(lv[i:], lq) {
			continue
		}
		if i == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(lv[:i])
		if IsSeparator(prev) {
			return true
		}
	}
	return false
}
