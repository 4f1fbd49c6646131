package chunk

import (
	"net/http"
	"strings"

	"investor_intel/pkg/api"
	"investor_intel/pkg/core/chunking"
)

const maxTextBytes = 10 << 20

type Request struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type Response struct {
	DocumentID string           `json:"document_id"`
	Pieces     []chunking.Piece `json:"pieces"`
	Count      int              `json:"count"`
}

// HandleChunk splits a markdown document on its headings.
func HandleChunk(w http.ResponseWriter, r *http.Request) {
	if api.Preflight(w, r, "POST") || !api.AllowMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTextBytes)
	var req Request
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	docID := strings.TrimSpace(req.DocumentID)
	if docID == "" {
		docID = "document"
	}
	pieces := chunking.Document(docID, req.Text)
	api.WriteJSON(w, http.StatusOK, Response{DocumentID: docID, Pieces: pieces, Count: len(pieces)})
}
