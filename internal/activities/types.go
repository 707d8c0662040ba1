package activities

import "voxlit/internal/models"

type FetchPDFInput struct {
	URL string `json:"url"`
}

type FetchPDFOutput struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

type ComputeDocumentIDInput struct {
	Path string `json:"path"`
}

type ComputeDocumentIDOutput struct {
	DocumentID string `json:"doc_id"`
}

type ExtractTextInput struct {
	Path string `json:"path"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type ChunkTextInput struct {
	DocumentID string `json:"doc_id"`
	Text       string `json:"text"`
}

type ChunkTextOutput struct {
	Chunks []models.Chunk `json:"chunks"`
}

type UpsertDocumentInput struct {
	Document models.Document `json:"document"`
	Chunks   []models.Chunk  `json:"chunks"`
}

type UpsertDocumentOutput struct {
	DocumentID string `json:"doc_id"`
	Chunks     int    `json:"chunks"`
}

type WriteDocumentArtifactsInput struct {
	DocumentID string         `json:"doc_id"`
	Text       string         `json:"text"`
	Chunks     []models.Chunk `json:"chunks"`
	Log        map[string]any `json:"log"`
}
