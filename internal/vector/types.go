package vector

import "voxlit/internal/models"

// Entry is one indexed chunk embedding with the document fields needed to
// annotate a match without a relational lookup.
type Entry struct {
	ChunkID    string
	DocumentID string
	Title      string
	SourceKind models.SourceKind
	Vector     []float32
}

type Match struct {
	ChunkID    string
	DocumentID string
	Title      string
	SourceKind models.SourceKind
	Score      float64
}

func kind(s string) models.SourceKind {
	return models.SourceKind(s)
}
