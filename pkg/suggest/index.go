package suggest

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
	"golang.org/x/text/unicode/norm"

	"github.com/wondrvoices/wondrsuggest/internal/utils"
)

// categoryIndex keeps the values of one category in first-seen order and a
// trie keyed by the lowercased suffix starting at every word start of every
// value. Each trie item is the ascending list of value positions sharing
// that suffix, so a subtree visit yields exactly the word-start matches.
type categoryIndex struct {
	values []string
	trie   *patricia.Trie
}

// Index is the normalized, read-only suggestion index. It is safe to share
// between goroutines once built.
type Index struct {
	categories map[Category]*categoryIndex
}

var _ Filterer = (*Index)(nil)

// NewIndex builds an Index from lists. Values are normalized and
// deduplicated per category, first occurrence wins.
func NewIndex(lists Lists) *Index {
	idx := &Index{categories: make(map[Category]*categoryIndex, len(Categories))}
	for _, c := range Categories {
		idx.categories[c] = buildCategory(lists.Get(c))
	}
	return idx
}

func buildCategory(raw []string) *categoryIndex {
	dedup := utils.NewDeduper()
	ci := &categoryIndex{
		values: make([]string, 0, len(raw)),
		trie:   patricia.NewTrie(),
	}
	for _, v := range raw {
		v = normalizeValue(v)
		if v == "" || !dedup.ShouldInclude(v) {
			continue
		}
		ci.insert(len(ci.values), v)
		ci.values = append(ci.values, v)
	}
	return ci
}

func (ci *categoryIndex) insert(pos int, value string) {
	lower := strings.ToLower(value)
	for _, start := range wordStarts(lower) {
		key := patricia.Prefix(lower[start:])
		if item := ci.trie.Get(key); item != nil {
			ci.trie.Set(key, append(item.([]int), pos))
			continue
		}
		ci.trie.Insert(key, []int{pos})
	}
}

func (ci *categoryIndex) filter(query string, limit int) []string {
	if limit <= 0 || len(ci.values) == 0 {
		return []string{}
	}

	if query == "" {
		n := min(limit, len(ci.values))
		out := make([]string, n)
		copy(out, ci.values[:n])
		return out
	}

	seen := make(map[int]struct{})
	var hits []int
	err := ci.trie.VisitSubtree(patricia.Prefix(query), func(_ patricia.Prefix, item patricia.Item) error {
		for _, pos := range item.([]int) {
			if _, ok := seen[pos]; ok {
				continue
			}
			seen[pos] = struct{}{}
			hits = append(hits, pos)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting suggestion trie: %v", err)
		return []string{}
	}

	sort.Ints(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]string, len(hits))
	for i, pos := range hits {
		out[i] = ci.values[pos]
	}
	return out
}

// FilterCategory returns up to limit values of category c that contain the
// query at a word start, in source order and with their original casing.
// An empty query returns the first limit values (browse mode).
func (idx *Index) FilterCategory(c Category, query string, limit int) ([]string, error) {
	ci, ok := idx.categories[c]
	if !ok {
		return nil, ErrUnknownCategory
	}
	return ci.filter(NormalizeQuery(query), limit), nil
}

// FilterAll applies FilterCategory to every category independently.
func (idx *Index) FilterAll(query string, perCategoryLimit int) Result {
	q := NormalizeQuery(query)
	return Result{
		Location: idx.categories[Location].filter(q, perCategoryLimit),
		CreditTo: idx.categories[CreditTo].filter(q, perCategoryLimit),
		Tag:      idx.categories[Tag].filter(q, perCategoryLimit),
	}
}

// Len returns the number of unique values held for c.
func (idx *Index) Len(c Category) int {
	if ci, ok := idx.categories[c]; ok {
		return len(ci.values)
	}
	return 0
}

// Snapshot returns a copy of the normalized lists.
func (idx *Index) Snapshot() Lists {
	cp := func(c Category) []string {
		vals := idx.categories[c].values
		out := make([]string, len(vals))
		copy(out, vals)
		return out
	}
	return Lists{
		Location: cp(Location),
		CreditTo: cp(CreditTo),
		Tag:      cp(Tag),
	}
}

// Stats returns basic index statistics.
func (idx *Index) Stats() map[string]int {
	return map[string]int{
		"location": idx.Len(Location),
		"creditTo": idx.Len(CreditTo),
		"tag":      idx.Len(Tag),
	}
}

// normalizeValue trims v and brings it to NFC so that visually identical
// values deduplicate.
func normalizeValue(v string) string {
	return norm.NFC.String(strings.TrimSpace(v))
}

// NormalizeQuery trims, NFC-normalizes and lowercases a query.
func NormalizeQuery(q string) string {
	return strings.ToLower(normalizeValue(q))
}
