package outline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"notesmith/internal/note"
)

// Split parses a document's lines into a flat, ordered list of sections.
// Content before the first heading becomes an implicit level-0 section.
// Splitting is deterministic: calling it twice on the same document yields
// identical sections and warnings.
func Split(doc *note.Document) ([]note.Section, []note.Warning) {
	s := &splitter{doc: doc}
	s.run()
	return s.sections, s.warnings
}

const preambleTitle = "Introduction"

var listItemRe = regexp.MustCompile(`^(\s*)([-*+]|\d+[.)])\s+`)

type splitter struct {
	doc      *note.Document
	sections []note.Section
	warnings []note.Warning

	current *note.Section
	ordinal int

	// paragraph/list accumulation
	blockKind  note.BlockKind
	blockLines []string
	blockStart int

	// fence state: outside-code <-> inside-code
	inFence    bool
	fenceChar  byte
	fenceLen   int
	fenceLang  string
	fenceStart int
	fenceLines []string
}

func (s *splitter) run() {
	for i, line := range s.doc.Lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if s.inFence {
			if isFenceClose(trimmed, s.fenceChar, s.fenceLen) {
				s.closeFence()
				continue
			}
			// Verbatim, untrimmed: internal whitespace must survive.
			s.fenceLines = append(s.fenceLines, line)
			continue
		}

		if char, length, lang, ok := parseFenceOpen(trimmed); ok {
			s.flushBlock()
			s.inFence = true
			s.fenceChar = char
			s.fenceLen = length
			s.fenceLang = lang
			s.fenceStart = lineNo
			s.fenceLines = nil
			continue
		}

		if level, title, ok := parseHeading(trimmed); ok {
			s.flushBlock()
			s.flushSection()
			s.startSection(level, title, lineNo)
			continue
		}

		s.appendContent(line, trimmed, lineNo)
	}

	if s.inFence {
		// End-of-document acts as an implicit close; report and keep
		// what was collected.
		s.warnings = append(s.warnings, note.NewWarning(
			note.KindMalformedCodeBlock, s.doc.ID, s.fenceLang, s.fenceStart,
			fmt.Sprintf("code fence opened at line %d is never closed", s.fenceStart)))
		s.closeFence()
	}

	s.flushBlock()
	s.flushSection()
}

func (s *splitter) startSection(level int, title string, lineNo int) {
	s.ordinal++
	s.current = &note.Section{
		ID:         sectionID(s.doc.ID, title, s.ordinal),
		DocumentID: s.doc.ID,
		Level:      level,
		Title:      title,
		StartLine:  lineNo,
	}
}

// ensureSection lazily creates the preamble section for content that appears
// before any heading.
func (s *splitter) ensureSection(lineNo int) {
	if s.current == nil {
		s.startSection(0, preambleTitle, lineNo)
	}
}

func (s *splitter) appendContent(line, trimmed string, lineNo int) {
	if trimmed == "" {
		s.flushBlock()
		return
	}

	s.ensureSection(lineNo)

	kind := note.BlockParagraph
	if listItemRe.MatchString(line) {
		kind = note.BlockList
	} else if s.blockKind == note.BlockList && len(s.blockLines) > 0 && strings.HasPrefix(line, " ") {
		// Indented continuation of a list item.
		kind = note.BlockList
	}

	if len(s.blockLines) > 0 && kind != s.blockKind {
		s.flushBlock()
	}
	if len(s.blockLines) == 0 {
		s.blockKind = kind
		s.blockStart = lineNo
	}
	s.blockLines = append(s.blockLines, line)
}

func (s *splitter) flushBlock() {
	if len(s.blockLines) == 0 {
		return
	}
	s.current.Blocks = append(s.current.Blocks, note.Block{
		Kind:      s.blockKind,
		Lines:     s.blockLines,
		StartLine: s.blockStart,
	})
	s.blockLines = nil
}

func (s *splitter) closeFence() {
	s.ensureSection(s.fenceStart)
	s.current.Blocks = append(s.current.Blocks, note.Block{
		Kind:      note.BlockCode,
		Lines:     s.fenceLines,
		Language:  s.fenceLang,
		StartLine: s.fenceStart,
	})
	s.inFence = false
	s.fenceLines = nil
	s.fenceLang = ""
}

func (s *splitter) flushSection() {
	if s.current == nil {
		return
	}
	s.sections = append(s.sections, *s.current)
	s.current = nil
}

// parseHeading recognizes ATX headings: 1-6 markers followed by a space.
func parseHeading(trimmed string) (level int, title string, ok bool) {
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level < 1 || level > 6 || level >= len(trimmed) || trimmed[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(trimmed[level:]), true
}

// parseFenceOpen recognizes a fence opener (``` or ~~~, three or more) and
// captures the free-form info string as the language tag. The tag is not
// validated here.
func parseFenceOpen(trimmed string) (char byte, length int, lang string, ok bool) {
	if trimmed == "" {
		return 0, 0, "", false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return 0, 0, "", false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, "", false
	}
	info := strings.TrimSpace(trimmed[n:])
	// Backtick info strings cannot themselves contain backticks.
	if c == '`' && strings.Contains(info, "`") {
		return 0, 0, "", false
	}
	if fields := strings.Fields(info); len(fields) > 0 {
		info = fields[0]
	}
	return c, n, info, true
}

// isFenceClose matches a closing fence: same character, at least as long as
// the opener, nothing else on the line.
func isFenceClose(trimmed string, char byte, minLen int) bool {
	if len(trimmed) < minLen {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != char {
			return false
		}
	}
	return true
}

// sectionID derives a stable identifier from the document, title, and the
// section's position within the document.
func sectionID(docID, title string, ordinal int) string {
	raw := fmt.Sprintf("%s:%s:%d", docID, title, ordinal)
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}
