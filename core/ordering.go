package core

import "strings"

// Ordering is one sort criterion of a listing, e.g. "-priority".
type Ordering struct {
	Field     string
	Ascending bool
}

// ParseOrderings reads a comma separated list of fields, a leading "-" sorting descending.
func ParseOrderings(s string) []Ordering {
	res := make([]Ordering, 0)
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		res = append(res, Ordering{Field: field, Ascending: !descending})
	}
	return res
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// FilterOrderings drops orderings on fields that are not in `allowed`.
func FilterOrderings(ordering []Ordering, allowed ...string) []Ordering {
	res := make([]Ordering, 0, len(ordering))
	for _, ord := range ordering {
		for _, fld := range allowed {
			if ord.Field == fld {
				res = append(res, ord)
				break
			}
		}
	}
	return res
}
