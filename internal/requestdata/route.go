package requestdata

// Route identifies a navigation target.
type Route struct {
	Name   string
	Params map[string]string

	// Preserve lists the keys whose data survives navigation to this route,
	// each with the params that must be unchanged from the previous route.
	// A key with no params survives any navigation to this route.
	Preserve map[Key][]string
}

// Preserves reports whether data for key survives navigating from from to r.
func (r Route) Preserves(from Route, key Key) bool {
	params, ok := r.Preserve[key]
	if !ok {
		return false
	}
	for _, p := range params {
		if from.Params[p] != r.Params[p] {
			return false
		}
	}
	return true
}

// Param returns the value of a route param.
func (r Route) Param(name string) string {
	return r.Params[name]
}
