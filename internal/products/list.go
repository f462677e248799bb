package product

// ListFilters narrows the storefront product list. Empty values match everything.
type ListFilters struct {
	Category string
	Color    string
	Material string
}
