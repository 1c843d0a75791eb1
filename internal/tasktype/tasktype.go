package tasktype

import (
	"strings"
	"time"
)

// Type identifies a kind of background work.
type Type string

const (
	TypeImport     Type = "import"
	TypeDownload   Type = "download"
	TypeThumbnail  Type = "thumbnail"
	TypeTranscribe Type = "transcribe"
	TypeTranslate  Type = "translate"
	TypeSummarize  Type = "summarize"
)

var allTypes = []Type{
	TypeImport,
	TypeDownload,
	TypeThumbnail,
	TypeTranscribe,
	TypeTranslate,
	TypeSummarize,
}

var typeSet = func() map[Type]struct{} {
	set := make(map[Type]struct{}, len(allTypes))
	for _, t := range allTypes {
		set[t] = struct{}{}
	}
	return set
}()

// dependencies maps each type to its static prerequisite types. Import and
// download are roots. The map must stay acyclic.
var dependencies = map[Type][]Type{
	TypeImport:     nil,
	TypeDownload:   nil,
	TypeThumbnail:  {TypeDownload},
	TypeTranscribe: {TypeDownload},
	TypeTranslate:  {TypeTranscribe},
	TypeSummarize:  {TypeTranscribe},
}

type metadata struct {
	display  string
	icon     string
	duration time.Duration
}

var typeMetadata = map[Type]metadata{
	TypeImport:     {display: "Import", icon: "square.and.arrow.down", duration: 30 * time.Second},
	TypeDownload:   {display: "Download Original", icon: "icloud.and.arrow.down", duration: 2 * time.Minute},
	TypeThumbnail:  {display: "Generate Thumbnail", icon: "photo", duration: 15 * time.Second},
	TypeTranscribe: {display: "Transcribe", icon: "waveform", duration: 5 * time.Minute},
	TypeTranslate:  {display: "Translate", icon: "globe", duration: time.Minute},
	TypeSummarize:  {display: "Summarize", icon: "text.alignleft", duration: time.Minute},
}

// All returns the ordered list of known types.
func All() []Type {
	cp := make([]Type, len(allTypes))
	copy(cp, allTypes)
	return cp
}

// Parse converts a string into a known Type.
func Parse(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := typeSet[normalized]
	return normalized, ok
}

// Dependencies returns the type-level prerequisites for t. The returned
// slice is a copy; callers may mutate it freely.
func Dependencies(t Type) []Type {
	deps := dependencies[t]
	if len(deps) == 0 {
		return nil
	}
	cp := make([]Type, len(deps))
	copy(cp, deps)
	return cp
}

// DisplayName returns the human-readable name for t.
func DisplayName(t Type) string {
	if meta, ok := typeMetadata[t]; ok {
		return meta.display
	}
	return string(t)
}

// IconTag returns the cosmetic icon identifier for t.
func IconTag(t Type) string {
	return typeMetadata[t].icon
}

// EstimatedDuration returns an advisory duration estimate for UI ETA
// display. It carries no scheduling weight.
func EstimatedDuration(t Type) time.Duration {
	return typeMetadata[t].duration
}
