// Package course defines the course-materials data model and the pipeline
// that turns raw course documents into indexable chunks.
package course

// Course represents one course. Title is the unique identifier; re-ingesting
// a document with the same title replaces the previous version.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson belongs to exactly one Course. Number is unique within the course,
// not globally.
type Lesson struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// NoLesson marks content that belongs to the course as a whole rather than
// to a specific lesson (e.g., the preamble before the first lesson header).
const NoLesson = -1

// Chunk is a bounded text span derived from a course document. Index is the
// course-wide sequence number, monotonically increasing across lessons; it
// makes chunk IDs stable and lets callers expand to neighboring chunks.
type Chunk struct {
	Text        string
	CourseTitle string
	Lesson      int // lesson number, or NoLesson for course-level text
	Index       int
}

// Section is a contiguous block of document text attached to one lesson
// (or to the course itself). The parser emits sections; the chunker consumes
// them, never crossing a section boundary with overlap.
type Section struct {
	Lesson int // lesson number, or NoLesson
	Text   string
}

// Document is a parsed course file: course metadata plus its text sections
// in source order.
type Document struct {
	Course   Course
	Sections []Section
}
