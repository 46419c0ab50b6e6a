package server

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/wondrvoices/wondrsuggest/pkg/config"
	"github.com/wondrvoices/wondrsuggest/pkg/suggest"
)

// requestError carries a client-facing status code.
type requestError struct {
	code int
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{code: 400, msg: fmt.Sprintf(format, args...)}
}

// clampLimit applies the default for unset limits and caps the rest.
func clampLimit(limit int, cfg config.SuggestConfig) int {
	if limit < 1 {
		return cfg.DefaultLimit
	}
	if limit > cfg.MaxLimit {
		return cfg.MaxLimit
	}
	return limit
}

// lookup validates a query and resolves it against the loaded index. A
// load failure is logged and answered with an empty result.
func lookup(ctx context.Context, loader suggest.Loader, cfg config.SuggestConfig, l *log.Logger,
	category, query string, limit int) (suggest.Result, error) {
	empty := suggest.Result{Location: []string{}, CreditTo: []string{}, Tag: []string{}}

	if n := utf8.RuneCountInString(query); n > cfg.MaxQuery {
		return empty, badRequest("query exceeds maximum length of %d characters", cfg.MaxQuery)
	}

	var cat suggest.Category
	if category != "" {
		c, err := suggest.ParseCategory(category)
		if err != nil {
			return empty, badRequest("%v", err)
		}
		cat = c
	}
	limit = clampLimit(limit, cfg)

	idx, err := loader.Load(ctx)
	if err != nil {
		l.Warn("Suggestions unavailable", "err", err)
		return empty, nil
	}

	return filter(idx, cat, query, limit)
}

// filter answers query from f, across all categories when cat is empty.
func filter(f suggest.Filterer, cat suggest.Category, query string, limit int) (suggest.Result, error) {
	empty := suggest.Result{Location: []string{}, CreditTo: []string{}, Tag: []string{}}
	if cat == "" {
		return f.FilterAll(query, limit), nil
	}
	values, err := f.FilterCategory(cat, query, limit)
	if err != nil {
		return empty, badRequest("%v", err)
	}
	res := empty
	switch cat {
	case suggest.Location:
		res.Location = values
	case suggest.CreditTo:
		res.CreditTo = values
	case suggest.Tag:
		res.Tag = values
	}
	return res, nil
}
