package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// Key namespaces. Retrieval-cache and answer-cache keys derived from the same
// question must never collide, so each namespace prefixes its keys.
const (
	NamespaceRetrieval = "kb"
	NamespaceAnswer    = "tutor"
)

// keyVersion is baked into every fingerprint so the derivation can change
// (new fields, different normalization) without silently aliasing old entries.
const keyVersion = "v1"

// Fingerprint derives a deterministic cache key from the semantic fields of a
// question. Two queries that differ only in question casing or surrounding
// whitespace produce the same fingerprint.
//
// MD5 is deliberate: this is a cache key, not a security boundary.
type Fingerprint struct {
	Namespace string
	Question  string
	ClassNo   *int
	Subject   string
}

// Key returns the namespaced cache key.
func (f Fingerprint) Key() string {
	question := strings.ToLower(strings.TrimSpace(f.Question))

	class := ""
	if f.ClassNo != nil {
		class = strconv.Itoa(*f.ClassNo)
	}

	raw := keyVersion + ":" + question + ":" + class + ":" + f.Subject
	sum := md5.Sum([]byte(raw))
	return f.Namespace + ":" + hex.EncodeToString(sum[:])
}

// RetrievalKey derives the retrieval-cache key for a question.
func RetrievalKey(question string, classNo *int, subject string) string {
	return Fingerprint{
		Namespace: NamespaceRetrieval,
		Question:  question,
		ClassNo:   classNo,
		Subject:   subject,
	}.Key()
}

// AnswerKey derives the answer-cache key for a question.
func AnswerKey(question string, classNo *int, subject string) string {
	return Fingerprint{
		Namespace: NamespaceAnswer,
		Question:  question,
		ClassNo:   classNo,
		Subject:   subject,
	}.Key()
}
