package models

import "github.com/google/uuid"

// Subject identifies a curriculum subject the knowledge base is scoped to.
type Subject string

const (
	SubjectScience       Subject = "science"
	SubjectSocialScience Subject = "social_science"
)

// Valid reports whether the subject is one of the known curriculum subjects.
func (s Subject) Valid() bool {
	switch s {
	case SubjectScience, SubjectSocialScience:
		return true
	}
	return false
}

// Language identifies the response language requested by the student.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageHindi   Language = "hindi"
)

// Valid reports whether the language is supported.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageHindi
}

// ClassMin and ClassMax bound the supported class levels.
const (
	ClassMin = 6
	ClassMax = 12
)

// Query is the ephemeral value describing one student question.
// The core reads it; it is never persisted as-is.
type Query struct {
	Question    string
	ClassNo     *int
	Subject     Subject  // empty means all subjects
	Language    Language // defaults to english
	SessionID   *uuid.UUID
	ImageBase64 string
	ImageMIME   string
	Stream      bool
}

// HasImage reports whether the question carries an image payload.
// Image-bearing questions are effectively unique, so they bypass the
// answer cache entirely.
func (q *Query) HasImage() bool {
	return q.ImageBase64 != ""
}
