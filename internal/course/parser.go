package course

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Header prefixes recognized at the top of a course file. The title line is
// required; link and instructor are optional and may appear in any order
// before the first lesson header.
const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

// lessonHeaderRe matches lesson headers such as "Lesson 3: Control Flow".
var lessonHeaderRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// ParseDocument reads a course file and splits it into course metadata and
// per-lesson text sections. Lesson headers and metadata lines are consumed
// here so they never end up inside chunk text.
//
// Expected layout:
//
//	Course Title: Python Programming Fundamentals
//	Course Link: https://example.com/python
//	Course Instructor: Alice Johnson
//
//	Lesson 1: Introduction
//	Lesson Link: https://example.com/python/lesson-1
//	<body text...>
//	Lesson 2: ...
//
// A document without a "Course Title:" line is malformed; name is only used
// in the error message.
func ParseDocument(r io.Reader, name string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{}
	current := NoLesson
	var body strings.Builder

	flush := func() {
		text := strings.TrimSpace(body.String())
		body.Reset()
		if text == "" {
			return
		}
		doc.Sections = append(doc.Sections, Section{Lesson: current, Text: text})
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, titlePrefix):
			doc.Course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, titlePrefix))
			continue
		case strings.HasPrefix(trimmed, linkPrefix):
			doc.Course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, linkPrefix))
			continue
		case strings.HasPrefix(trimmed, instructorPrefix):
			doc.Course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, instructorPrefix))
			continue
		case strings.HasPrefix(trimmed, lessonLinkPrefix):
			if n := len(doc.Course.Lessons); n > 0 {
				doc.Course.Lessons[n-1].Link = strings.TrimSpace(strings.TrimPrefix(trimmed, lessonLinkPrefix))
			}
			continue
		}

		if m := lessonHeaderRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				// \d+ matched, so this only fires on overflow-sized numbers.
				return nil, fmt.Errorf("parsing %s: lesson number %q: %w", name, m[1], err)
			}
			doc.Course.Lessons = append(doc.Course.Lessons, Lesson{
				Number: number,
				Title:  strings.TrimSpace(m[2]),
			})
			current = number
			continue
		}

		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	flush()

	if doc.Course.Title == "" {
		return nil, fmt.Errorf("parsing %s: missing %q header", name, titlePrefix)
	}

	return doc, nil
}
