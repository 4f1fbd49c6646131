// Package chunking splits markdown documents on heading boundaries so each
// section can be embedded and indexed on its own.
package chunking

import (
	"fmt"
	"regexp"
	"strings"
)

// headingPattern matches a heading line: 1-6 '#' at the start of a line
// followed by whitespace.
var headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+.*`)

// Chunk splits text at every heading line. Text before the first heading is
// kept as its own chunk. Chunks are trimmed and empty chunks dropped; the
// result is in document order.
func Chunk(text string) []string {
	locs := headingPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		whole := strings.TrimSpace(text)
		if whole == "" {
			return []string{}
		}
		return []string{whole}
	}

	chunks := make([]string, 0, len(locs)+1)
	if locs[0][0] > 0 {
		chunks = appendTrimmed(chunks, text[:locs[0][0]])
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		chunks = appendTrimmed(chunks, text[loc[0]:end])
	}
	return chunks
}

func appendTrimmed(chunks []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// Piece is a chunk tagged with its owning document and position.
type Piece struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Ordinal    int    `json:"ordinal"`
	Content    string `json:"content"`
}

// Document chunks text and assigns ordinals in output order. IDs take the
// form "<documentID>_chunk_<ordinal>".
func Document(documentID, text string) []Piece {
	chunks := Chunk(text)
	pieces := make([]Piece, len(chunks))
	for i, c := range chunks {
		pieces[i] = Piece{
			ID:         PieceID(documentID, i),
			DocumentID: documentID,
			Ordinal:    i,
			Content:    c,
		}
	}
	return pieces
}

// PieceID is the vector-store id of the ordinal-th chunk of a document.
func PieceID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, ordinal)
}
