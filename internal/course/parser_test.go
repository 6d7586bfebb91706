package course

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `Course Title: Python Programming Fundamentals
Course Link: https://example.com/python-fundamentals
Course Instructor: Alice Johnson

Lesson 1: Introduction to Python
Lesson Link: https://example.com/python-fundamentals/lesson-1
Python is a high-level, interpreted programming language. It was first released in 1991.

Lesson 2: Variables and Data Types
Lesson Link: https://example.com/python-fundamentals/lesson-2
Variables are used to store data values. Python has several built-in data types.
`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(sampleDocument), "python_course.txt")
	require.NoError(t, err)

	assert.Equal(t, "Python Programming Fundamentals", doc.Course.Title)
	assert.Equal(t, "https://example.com/python-fundamentals", doc.Course.Link)
	assert.Equal(t, "Alice Johnson", doc.Course.Instructor)

	require.Len(t, doc.Course.Lessons, 2)
	assert.Equal(t, 1, doc.Course.Lessons[0].Number)
	assert.Equal(t, "Introduction to Python", doc.Course.Lessons[0].Title)
	assert.Equal(t, "https://example.com/python-fundamentals/lesson-1", doc.Course.Lessons[0].Link)
	assert.Equal(t, 2, doc.Course.Lessons[1].Number)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, 1, doc.Sections[0].Lesson)
	assert.Contains(t, doc.Sections[0].Text, "high-level")
	assert.NotContains(t, doc.Sections[0].Text, "Lesson 1:", "headers must not leak into section text")
	assert.NotContains(t, doc.Sections[0].Text, "Lesson Link:")
	assert.Equal(t, 2, doc.Sections[1].Lesson)
}

func TestParseDocumentCourseLevelPreamble(t *testing.T) {
	raw := `Course Title: Minimal Course
This text belongs to the course itself.

Lesson 1: Only Lesson
Lesson body.
`
	doc, err := ParseDocument(strings.NewReader(raw), "minimal.txt")
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, NoLesson, doc.Sections[0].Lesson)
	assert.Equal(t, "This text belongs to the course itself.", doc.Sections[0].Text)
	assert.Equal(t, 1, doc.Sections[1].Lesson)
}

func TestParseDocumentMissingTitle(t *testing.T) {
	_, err := ParseDocument(strings.NewReader("just some text\n"), "notes.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Course Title:")
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestParseDocumentNoLessons(t *testing.T) {
	raw := "Course Title: Flat Course\nAll the content lives at course level.\n"
	doc, err := ParseDocument(strings.NewReader(raw), "flat.txt")
	require.NoError(t, err)

	assert.Empty(t, doc.Course.Lessons)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, NoLesson, doc.Sections[0].Lesson)
}

func TestParseDocumentOptionalHeadersOmitted(t *testing.T) {
	raw := "Course Title: Bare Course\n\nLesson 1: Start\nBody text here.\n"
	doc, err := ParseDocument(strings.NewReader(raw), "bare.txt")
	require.NoError(t, err)

	assert.Empty(t, doc.Course.Link)
	assert.Empty(t, doc.Course.Instructor)
	require.Len(t, doc.Course.Lessons, 1)
	assert.Empty(t, doc.Course.Lessons[0].Link)
}
