package note

// Document is one loaded unit of notes content. It is immutable after load:
// the pipeline derives sections, edges, and rendered output from it but never
// writes back.
type Document struct {
	ID          string         `json:"id"`
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Related     []string       `json:"related,omitempty"`
	Draft       bool           `json:"draft,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	Lines       []string       `json:"-"`
	ContentHash string         `json:"content_hash"`
}

// BlockKind discriminates the content blocks inside a section.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockList      BlockKind = "list"
	BlockCode      BlockKind = "code"
)

// Block is a run of lines within a section. Code blocks keep their content
// verbatim and carry the free-form language tag from the opening fence.
type Block struct {
	Kind      BlockKind `json:"kind"`
	Lines     []string  `json:"lines"`
	Language  string    `json:"language,omitempty"`
	StartLine int       `json:"start_line"`
}

// Section is a heading-delimited portion of a Document. Level 0 marks the
// implicit preamble before the first heading.
type Section struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Level      int     `json:"level"`
	Title      string  `json:"title"`
	StartLine  int     `json:"start_line"`
	Blocks     []Block `json:"blocks"`
}

// CodeBlocks returns the code blocks of a section in order.
func (s Section) CodeBlocks() []Block {
	var out []Block
	for _, b := range s.Blocks {
		if b.Kind == BlockCode {
			out = append(out, b)
		}
	}
	return out
}
