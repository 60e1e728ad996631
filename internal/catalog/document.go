// Package catalog loads course records and renders them as searchable
// documents for the vector index.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Metadata keys attached to every document.
const (
	MetaCourseID = "courseId"
	MetaIsFlex   = "isFlex"
)

// Document is one course rendered as a text block plus metadata.
// Documents are immutable once built.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// CourseID returns the course id metadata value.
func (d Document) CourseID() string {
	return d.Metadata[MetaCourseID]
}

// Course is a normalized catalog record.
type Course struct {
	CourseID         string
	Title            string
	Description      string
	Subjects         []string
	Grades           []string
	IsDualCredit     string
	IsCreditRecovery string
	HigherEdCredits  string
	IsFlex           string
}

// Content renders the course as the text block that gets chunked and embedded.
func (c Course) Content() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", c.Title)
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	fmt.Fprintf(&b, "Subjects: %s\n", strings.Join(c.Subjects, ", "))
	fmt.Fprintf(&b, "Grade: %s\n", strings.Join(c.Grades, ", "))
	fmt.Fprintf(&b, "isDualCredit: %s\n", c.IsDualCredit)
	fmt.Fprintf(&b, "isCreditRecovery: %s\n", c.IsCreditRecovery)
	fmt.Fprintf(&b, "HigherEdCredits: %s", c.HigherEdCredits)
	return b.String()
}

// Document converts the course into a Document. fallbackID is used when the
// record has no course id.
func (c Course) Document(fallbackID string) Document {
	id := c.CourseID
	if id == "" || id == notAvailable {
		id = fallbackID
	}
	return Document{
		ID:      id,
		Content: c.Content(),
		Metadata: map[string]string{
			MetaCourseID: c.CourseID,
			MetaIsFlex:   c.IsFlex,
		},
	}
}

// ComputeContentHash returns the hex SHA-256 of content.
func ComputeContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
