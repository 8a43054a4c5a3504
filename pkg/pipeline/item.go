package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/photoblog/resize-images/pkg/imagetool"
)

// stagedMarker prefixes source files that static-site tooling would otherwise ignore.
const stagedMarker = "_"

// Operation is the branch taken for the full-size derivative.
type Operation string

const (
	OperationUnknown Operation = "unknown"
	OperationResize  Operation = "resize"
	OperationCopy    Operation = "copy"
)

// Stage names the step at which an item failed.
type Stage string

const (
	StageNone      Stage = ""
	StageMetadata  Stage = "metadata"
	StageFull      Stage = "full"
	StageThumbnail Stage = "thumbnail"
)

// Failure reasons recorded on outcomes.
const (
	ReasonUnreadableMetadata = "unreadable metadata"
	ReasonFullFailed         = "full-size production failed"
	ReasonThumbnailFailed    = "thumbnail production failed"
)

// Item is one source image and the two derivative paths derived from it.
type Item struct {
	RunID      string
	SourceName string
	OutputName string
	SourcePath string
	FullPath   string
	ThumbPath  string
}

// ID identifies the item within a run.
func (i Item) ID() string {
	if i.RunID == "" {
		return i.SourceName
	}
	return i.RunID + "/" + i.SourceName
}

// NewItem builds the paths for a source file name.
func NewItem(runID, sourceDir, fullDir, thumbDir, name string) Item {
	out := OutputName(name)
	return Item{
		RunID:      runID,
		SourceName: name,
		OutputName: out,
		SourcePath: filepath.Join(sourceDir, name),
		FullPath:   filepath.Join(fullDir, out),
		ThumbPath:  filepath.Join(thumbDir, out),
	}
}

// OutputName strips at most one leading staged marker from a source file name.
// "_hero.png" becomes "hero.png"; "__hero.png" becomes "_hero.png".
func OutputName(sourceName string) string {
	base := filepath.Base(sourceName)
	return strings.TrimPrefix(base, stagedMarker)
}

// Outcome is the per-item result. The primary result (Succeeded) only reflects
// derivative production; retirement and sink delivery are reported separately.
type Outcome struct {
	Item        Item
	Succeeded   bool
	Operation   Operation
	FailedStage Stage
	Reason      string
	Dimensions  imagetool.Dimensions

	SourceRetired bool
	Delivered     []string
}

// NewOutcome returns the starting outcome for an item.
func NewOutcome(item Item) Outcome {
	return Outcome{Item: item, Operation: OperationUnknown}
}
