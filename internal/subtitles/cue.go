package subtitles

import (
	"regexp"
	"strings"
	"time"

	"enchant/internal/apperr"
)

// Format is a subtitle file extension including the leading dot.
type Format string

const (
	FormatSRT Format = ".srt"
	FormatASS Format = ".ass"
)

// SupportedFormats lists every accepted subtitle extension.
var SupportedFormats = []Format{FormatSRT, FormatASS}

// ParseFormat maps a file extension (case-insensitive, with or without dot)
// to a supported Format.
func ParseFormat(ext string) (Format, error) {
	value := strings.ToLower(strings.TrimSpace(ext))
	if value != "" && !strings.HasPrefix(value, ".") {
		value = "." + value
	}
	for _, format := range SupportedFormats {
		if Format(value) == format {
			return format, nil
		}
	}
	return "", apperr.New(apperr.KindFormatUnsupported, "subtitle format", ext, "supported formats: .srt .ass")
}

// Cue is one timed line of dialogue.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string

	// event keeps the original ASS dialogue fields so a cue survives a
	// parse/serialize round trip with its style and margins intact.
	event []string
}

// Duration returns End - Start.
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

// Shift returns a copy of c moved by offset.
func (c Cue) Shift(offset time.Duration) Cue {
	c.Start += offset
	c.End += offset
	return c
}

var (
	assOverrideBlock = regexp.MustCompile(`\{[^}]*\}`)
	markupTag        = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// PlainText returns the cue text without ASS override blocks or HTML-style
// markup, with ASS line breaks turned into newlines.
func (c Cue) PlainText() string {
	text := assOverrideBlock.ReplaceAllString(c.Text, "")
	text = strings.NewReplacer(`\N`, "\n", `\n`, "\n", `\h`, " ").Replace(text)
	text = markupTag.ReplaceAllString(text, "")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Document is a parsed subtitle file.
type Document struct {
	Format Format
	Cues   []Cue

	header      []string
	eventFormat []string
	trailer     []string
}

// WithCues returns a copy of d that keeps its framing but carries cues.
func (d *Document) WithCues(cues []Cue) *Document {
	clone := *d
	clone.Cues = cues
	return &clone
}

// Codec converts between file bytes and Documents for one format.
type Codec interface {
	Parse(data []byte) (*Document, error)
	Serialize(doc *Document) ([]byte, error)
}

// CodecFor returns the codec for format.
func CodecFor(format Format) (Codec, error) {
	switch format {
	case FormatSRT:
		return srtCodec{}, nil
	case FormatASS:
		return assCodec{}, nil
	default:
		return nil, apperr.New(apperr.KindFormatUnsupported, "subtitle codec", string(format), "")
	}
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*Document, error) {
	codec, err := CodecFor(format)
	if err != nil {
		return nil, err
	}
	return codec.Parse(data)
}

// Serialize encodes doc in its own format.
func Serialize(doc *Document) ([]byte, error) {
	codec, err := CodecFor(doc.Format)
	if err != nil {
		return nil, err
	}
	return codec.Serialize(doc)
}

func splitLines(data []byte) []string {
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
