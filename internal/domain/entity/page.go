package entity

type TagKind string

const (
	TagInput    TagKind = "input"
	TagTextArea TagKind = "textarea"
	TagSelect   TagKind = "select"
	TagButton   TagKind = "button"
	TagLink     TagKind = "a"
	TagHeading1 TagKind = "h1"
	TagHeading2 TagKind = "h2"
	TagHeading3 TagKind = "h3"
)

// ElementSelector is the CSS allowlist every driver queries. Hidden inputs
// carry no user-facing field and are left out.
const ElementSelector = `input:not([type="hidden"]), textarea, select, button, a[role="button"], h1, h2, h3`

// ElementDescriptor is one line of a page snapshot.
type ElementDescriptor struct {
	Tag   TagKind `json:"tag"`
	Type  string  `json:"type"`
	Name  string  `json:"name"`
	Value string  `json:"value"`
	Label string  `json:"label"`
}

// HasValue reports whether the element kind exposes a current value.
func (t TagKind) HasValue() bool {
	return t == TagInput || t == TagTextArea || t == TagSelect
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
