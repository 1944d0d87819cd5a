package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SortMode orders a media listing.
type SortMode string

const (
	SortDate  SortMode = "date"
	SortViews SortMode = "views"
	SortLikes SortMode = "likes"
)

// ParseSortMode converts user input into a SortMode. Empty input yields SortDate.
func ParseSortMode(value string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "date":
		return SortDate, nil
	case "views":
		return SortViews, nil
	case "likes":
		return SortLikes, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", value)
	}
}

// QueryParam combines a sort mode with a set of opaque filter codes such as
// "type:video", plus the free text of a search. It is a value type: mutators
// return a new QueryParam.
type QueryParam struct {
	Sort    SortMode
	Filters map[string]struct{}
	Text    string
}

// NewQueryParam builds a QueryParam, dropping blank and duplicate codes.
func NewQueryParam(sortMode SortMode, filters ...string) QueryParam {
	if sortMode == "" {
		sortMode = SortDate
	}
	q := QueryParam{Sort: sortMode, Filters: make(map[string]struct{}, len(filters))}
	for _, f := range filters {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		q.Filters[f] = struct{}{}
	}
	return q
}

// DefaultQuery is the query used when the caller supplies none.
func DefaultQuery() QueryParam {
	return NewQueryParam(SortDate)
}

// Equal compares text, sort mode and filter set by content. A nil and an
// empty filter set are equal.
func (q QueryParam) Equal(other QueryParam) bool {
	if q.Text != other.Text || q.sortOrDefault() != other.sortOrDefault() {
		return false
	}
	if len(q.Filters) != len(other.Filters) {
		return false
	}
	for f := range q.Filters {
		if _, ok := other.Filters[f]; !ok {
			return false
		}
	}
	return true
}

// Has reports whether the filter code is set.
func (q QueryParam) Has(code string) bool {
	_, ok := q.Filters[code]
	return ok
}

// Toggle returns a copy with the filter code added when absent and removed
// when present.
func (q QueryParam) Toggle(code string) QueryParam {
	out := q.Clone()
	if _, ok := out.Filters[code]; ok {
		delete(out.Filters, code)
	} else {
		out.Filters[code] = struct{}{}
	}
	return out
}

// WithSort returns a copy using the provided sort mode.
func (q QueryParam) WithSort(mode SortMode) QueryParam {
	out := q.Clone()
	out.Sort = mode
	return out
}

// WithText returns a copy carrying the search text.
func (q QueryParam) WithText(text string) QueryParam {
	out := q.Clone()
	out.Text = text
	return out
}

// Clone returns a deep copy.
func (q QueryParam) Clone() QueryParam {
	out := QueryParam{Sort: q.sortOrDefault(), Filters: make(map[string]struct{}, len(q.Filters)), Text: q.Text}
	for f := range q.Filters {
		out.Filters[f] = struct{}{}
	}
	return out
}

// Codes returns the filter codes in sorted order.
func (q QueryParam) Codes() []string {
	codes := make([]string, 0, len(q.Filters))
	for f := range q.Filters {
		codes = append(codes, f)
	}
	sort.Strings(codes)
	return codes
}

// String renders the query as "sort[filter,filter]", prefixed with the quoted
// text when there is one.
func (q QueryParam) String() string {
	base := fmt.Sprintf("%s[%s]", q.sortOrDefault(), strings.Join(q.Codes(), ","))
	if q.Text == "" {
		return base
	}
	return strconv.Quote(q.Text) + " " + base
}

// MarshalJSON renders the query with sorted filter codes.
func (q QueryParam) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Sort    SortMode `json:"sort"`
		Filters []string `json:"filters"`
		Text    string   `json:"text,omitempty"`
	}{Sort: q.sortOrDefault(), Filters: q.Codes(), Text: q.Text})
}

func (q QueryParam) sortOrDefault() SortMode {
	if q.Sort == "" {
		return SortDate
	}
	return q.Sort
}
