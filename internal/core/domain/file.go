package domain

import "time"

// DecisionSource identifies which pipeline stage assigned a file's
// category. The values are the badge strings exposed on the wire.
type DecisionSource string

const (
	SourceFilename DecisionSource = "filename"
	SourceAI       DecisionSource = "ai"
)

// FileRecord is one catalogued file. Path is the unique key within the
// Catalog Index; re-ingesting the same path overwrites the record.
type FileRecord struct {
	Path         string         `json:"path"`
	OriginalPath string         `json:"originalPath,omitempty"`
	Name         string         `json:"name"`
	Size         int64          `json:"size"`
	ModTime      time.Time      `json:"modTime"`
	Category     string         `json:"category"`
	Source       DecisionSource `json:"type"`
}

// Decision is the terminal outcome of the classification pipeline for
// a single file. The pipeline always produces one; it never fails.
type Decision struct {
	Category string
	Source   DecisionSource
}

// CategoryStats is the per-category aggregate view. Count always equals
// len(Files); the Catalog Index maintains this transactionally.
type CategoryStats struct {
	Count int          `json:"count"`
	Files []FileRecord `json:"files"`
}

// Suggestion is what the content classifier returns for a file whose
// name matched no keywords.
type Suggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// FileSort and SortOrder are the query parameters of the all-files view.
type FileSort string

type SortOrder string

const (
	SortByTime FileSort = "time"
	SortBySize FileSort = "size"

	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// FileQuery restricts and orders the global file listing. An empty
// Category means no filter. Ties on the sort key keep insertion order.
type FileQuery struct {
	Category string
	Sort     FileSort
	Order    SortOrder
}
