package db

// Schema defines the SQLite catalog of produced derivatives.
// One row is written per successful item; runs are grouped by run_id.
const Schema = `
CREATE TABLE IF NOT EXISTS derivatives (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    source_name TEXT NOT NULL,
    output_name TEXT NOT NULL,
    operation TEXT NOT NULL CHECK(operation IN ('resize', 'copy')),
    source_width INTEGER NOT NULL,
    source_height INTEGER NOT NULL,
    full_path TEXT NOT NULL,
    thumb_path TEXT NOT NULL,
    source_retired INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_derivatives_run_id ON derivatives(run_id);
CREATE INDEX IF NOT EXISTS idx_derivatives_output_name ON derivatives(output_name);
CREATE INDEX IF NOT EXISTS idx_derivatives_created_at ON derivatives(created_at);
`

// Operation values stored in the catalog.
const (
	OperationResize = "resize"
	OperationCopy   = "copy"
)

// Derivative is one catalogued item.
type Derivative struct {
	ID            int64  `yaml:"id"`
	RunID         string `yaml:"run_id"`
	SourceName    string `yaml:"source_name"`
	OutputName    string `yaml:"output_name"`
	Operation     string `yaml:"operation"`
	SourceWidth   int    `yaml:"source_width"`
	SourceHeight  int    `yaml:"source_height"`
	FullPath      string `yaml:"full_path"`
	ThumbPath     string `yaml:"thumb_path"`
	SourceRetired bool   `yaml:"source_retired"`
	CreatedAt     string `yaml:"created_at"`
}
