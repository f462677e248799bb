// Package catalog manages the storefront filter lists: categories, colors and
// materials. The three share one shape and differ only by table and wording.
package catalog

// Kind describes one filter list.
type Kind struct {
	Table    string
	Label    string
	Singular string
	Plural   string
	HasCode  bool
}

var (
	Categories = Kind{Table: "categories", Label: "Category", Singular: "category", Plural: "categories", HasCode: true}
	Colors     = Kind{Table: "colors", Label: "Color", Singular: "color", Plural: "colors"}
	Materials  = Kind{Table: "materials", Label: "Material", Singular: "material", Plural: "materials"}
)

func (k Kind) notFound() string { return k.Label + " not found" }

func (k Kind) duplicate() string { return k.Label + " already exists" }

// DeletedMessage is the success message returned after a delete.
func (k Kind) DeletedMessage() string { return k.Label + " deleted successfully" }
