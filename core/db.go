package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// FilterOrderings drops orderings on fields that are not in `allowed` (a field -> column map)
// and maps the remaining ones to their column.
func FilterOrderings(orderings []DBOrdering, allowed map[string]string) []DBOrdering {
	res := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := allowed[ord.Field]; ok {
			res = append(res, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return res
}
