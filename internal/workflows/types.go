package workflows

import "voxlit/internal/models"

type PersistToolResultInput struct {
	Result models.ToolResult `json:"result"`
}

// DocumentIngestInput names a PDF either already on disk (Path) or to be
// downloaded (URL). Path wins when both are set.
type DocumentIngestInput struct {
	Path  string `json:"path,omitempty"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

type IngestResult struct {
	DocumentID string `json:"doc_id"`
	Chunks     int    `json:"chunks"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason,omitempty"`
}

type IngestStatus struct {
	DocumentID  string            `json:"doc_id"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Steps       map[string]string `json:"steps"`
}
