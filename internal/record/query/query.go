package query

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/smallbiznis/tailorbook/internal/record/domain"
)

// MinSearchLength is the shortest term that filters a listing; shorter
// terms return everything.
const MinSearchLength = 3

const (
	SortIdentityAsc  = "identity"
	SortIdentityDesc = "-identity"
)

type Options struct {
	Query  string
	Sort   string
	Fields []string
}

// Apply returns a filtered and ordered copy of docs.
func Apply(kind domain.Kind, docs []domain.Document, opts Options) []domain.Document {
	out := Filter(docs, opts.Query, opts.Fields)
	switch strings.TrimSpace(opts.Sort) {
	case SortIdentityAsc:
		SortByIdentity(kind, out, false)
	case SortIdentityDesc:
		SortByIdentity(kind, out, true)
	}
	return out
}

// Filter keeps documents where any of fields contains term, ignoring case.
func Filter(docs []domain.Document, term string, fields []string) []domain.Document {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.Document, 0, len(docs))
	if utf8.RuneCountInString(term) < MinSearchLength || len(fields) == 0 {
		return append(out, docs...)
	}
	for _, doc := range docs {
		for _, field := range fields {
			value, ok := doc.String(field)
			if ok && strings.Contains(strings.ToLower(value), term) {
				out = append(out, doc)
				break
			}
		}
	}
	return out
}

// SortByIdentity orders numerically when both identities are integers and
// lexically otherwise; numeric identities sort before the rest.
func SortByIdentity(kind domain.Kind, docs []domain.Document, desc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].Identity(kind), docs[j].Identity(kind)
		if desc {
			a, b = b, a
		}
		return lessIdentity(a, b)
	})
}

func lessIdentity(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
