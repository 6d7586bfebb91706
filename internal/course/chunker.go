package course

import (
	"fmt"
	"regexp"
	"strings"
)

// Chunker splits section text into overlapping, size-bounded chunks.
//
// The split works on sentence boundaries: sentences accumulate until the
// configured size is reached, and the next chunk starts by backing into the
// previous chunk's tail by up to Overlap characters, always at a sentence
// boundary so the overlap never cuts a word. Overlap is not applied across
// section (lesson) boundaries.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. size must be positive and overlap must be
// non-negative and strictly smaller than size; these are the same invariants
// config.Validate enforces at startup.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be within [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk turns a parsed document into its ordered chunk sequence. The chunk
// index increases monotonically across all sections of the course. An empty
// document yields nil.
func (c *Chunker) Chunk(doc *Document) []Chunk {
	var chunks []Chunk
	index := 0

	for _, sec := range doc.Sections {
		for _, text := range c.splitText(sec.Text) {
			chunks = append(chunks, Chunk{
				Text:        text,
				CourseTitle: doc.Course.Title,
				Lesson:      sec.Lesson,
				Index:       index,
			})
			index++
		}
	}

	return chunks
}

// sentenceEndRe finds sentence terminators followed by whitespace or the end
// of the text.
var sentenceEndRe = regexp.MustCompile(`[.!?]+(\s+|$)`)

// splitText splits one section's text into chunk strings.
func (c *Chunker) splitText(text string) []string {
	sentences := c.splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var out []string
	i := 0
	for i < len(sentences) {
		// Accumulate sentences until the size budget is spent. The first
		// sentence is always taken so progress is guaranteed.
		j := i
		length := 0
		for j < len(sentences) {
			add := len(sentences[j])
			if j > i {
				add++ // joining space
			}
			if j > i && length+add > c.size {
				break
			}
			length += add
			j++
		}

		out = append(out, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Back into the tail of the chunk just emitted by up to overlap
		// characters, whole sentences only.
		back := j
		overlapLen := 0
		for back > i+1 {
			add := len(sentences[back-1])
			if overlapLen > 0 {
				add++
			}
			if overlapLen+add > c.overlap {
				break
			}
			overlapLen += add
			back--
		}
		i = back
	}

	return out
}

// splitSentences splits text into trimmed sentences. Text with no sentence
// terminator at all becomes a single sentence. Sentences longer than the
// chunk size are hard-split at word boundaries so no emitted unit can exceed
// the budget on its own.
func (c *Chunker) splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[start:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	var bounded []string
	for _, s := range sentences {
		if len(s) <= c.size {
			bounded = append(bounded, s)
			continue
		}
		bounded = append(bounded, splitLongSentence(s, c.size)...)
	}
	return bounded
}

// splitLongSentence splits an oversized sentence into pieces of at most max
// characters, preferring word boundaries and falling back to a raw cut only
// when a single word exceeds the budget.
func splitLongSentence(s string, max int) []string {
	var pieces []string
	var current strings.Builder

	for _, word := range strings.Fields(s) {
		for len(word) > max {
			if current.Len() > 0 {
				pieces = append(pieces, current.String())
				current.Reset()
			}
			pieces = append(pieces, word[:max])
			word = word[max:]
		}
		add := len(word)
		if current.Len() > 0 {
			add++
		}
		if current.Len()+add > max {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}
