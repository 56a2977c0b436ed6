package models

import "strings"

// SortKey selects the ordering of task listings.
type SortKey string

const (
	SortCreatedDesc SortKey = "CREATED_AT_DESC"
	SortCreatedAsc  SortKey = "CREATED_AT_ASC"
	SortDueAsc      SortKey = "DUE_DATE_ASC"
	SortDueDesc     SortKey = "DUE_DATE_DESC"
)

// ParseSortKey maps a user-supplied value to a SortKey. Unknown or empty
// values fall back to SortCreatedDesc.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToUpper(strings.TrimSpace(s))); k {
	case SortCreatedDesc, SortCreatedAsc, SortDueAsc, SortDueDesc:
		return k
	}
	return SortCreatedDesc
}
