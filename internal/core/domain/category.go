package domain

// Built-in category names, in their fixed declared order. Uncategorized
// is the assignment of last resort and always exists.
const (
	CategoryContract      = "contract"
	CategoryResume        = "resume"
	CategoryInvoice       = "invoice"
	CategoryThesis        = "thesis"
	CategoryUncategorized = "uncategorized"
)

// BuiltinCategories returns the built-in names in registry order.
func BuiltinCategories() []string {
	return []string{
		CategoryContract,
		CategoryResume,
		CategoryInvoice,
		CategoryThesis,
		CategoryUncategorized,
	}
}

// Category is a named bucket files are assigned to. Keywords drive the
// filename stage of the pipeline; uncategorized carries none.
type Category struct {
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords"`
	IsBuiltin bool     `json:"isBuiltin"`
}
