package models

// ContextChunk is one retrieved excerpt used to ground an answer.
// Chunks are immutable once produced and ordered by descending score.
type ContextChunk struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	Source       string  `json:"source"`
	Subject      string  `json:"subject,omitempty"`
	ClassNo      int     `json:"class_no,omitempty"`
	ChapterTitle string  `json:"chapter_title,omitempty"`
}
