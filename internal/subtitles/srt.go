package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

type srtCodec struct{}

// Parse splits the file into cue blocks. A blank line only closes a cue when
// the next non-blank line starts another cue (a timing line, or a sequence
// number followed by one), so cue text may itself contain blank lines.
func (srtCodec) Parse(data []byte) (*Document, error) {
	doc := &Document{Format: FormatSRT}
	lines := splitLines(data)
	for i := skipBlank(lines, 0); i < len(lines); {
		end := srtBlockEnd(lines, i)
		cue, err := parseSRTBlock(lines[i:end], len(doc.Cues)+1)
		if err != nil {
			return nil, err
		}
		doc.Cues = append(doc.Cues, cue)
		i = skipBlank(lines, end)
	}
	return doc, nil
}

func srtBlockEnd(lines []string, start int) int {
	for j := start + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) != "" {
			continue
		}
		next := skipBlank(lines, j)
		if next == len(lines) || srtHeaderAt(lines, next) {
			return j
		}
		j = next
	}
	return len(lines)
}

func srtHeaderAt(lines []string, i int) bool {
	if strings.Contains(lines[i], "-->") {
		return true
	}
	if _, err := strconv.Atoi(strings.TrimSpace(lines[i])); err != nil {
		return false
	}
	return i+1 < len(lines) && strings.Contains(lines[i+1], "-->")
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return i
}

func parseSRTBlock(lines []string, blockNumber int) (Cue, error) {
	cue := Cue{Index: blockNumber}
	timing := 0
	if !strings.Contains(lines[0], "-->") {
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return Cue{}, fmt.Errorf("srt block %d: invalid sequence number %q", blockNumber, lines[0])
		}
		cue.Index = index
		timing = 1
	}
	if timing >= len(lines) || !strings.Contains(lines[timing], "-->") {
		return Cue{}, fmt.Errorf("srt block %d: missing timing line", blockNumber)
	}

	startText, rest, _ := strings.Cut(lines[timing], "-->")
	endFields := strings.Fields(rest)
	if len(endFields) == 0 {
		return Cue{}, fmt.Errorf("srt block %d: missing end timestamp", blockNumber)
	}
	start, err := ParseSRTTimestamp(startText)
	if err != nil {
		return Cue{}, fmt.Errorf("srt block %d: %w", blockNumber, err)
	}
	end, err := ParseSRTTimestamp(endFields[0])
	if err != nil {
		return Cue{}, fmt.Errorf("srt block %d: %w", blockNumber, err)
	}
	cue.Start = start
	cue.End = end
	cue.Text = strings.Join(lines[timing+1:], "\n")
	return cue, nil
}

// Serialize renumbers cues from 1. An empty cue list produces an empty file.
func (srtCodec) Serialize(doc *Document) ([]byte, error) {
	var b strings.Builder
	for i, cue := range doc.Cues {
		if cue.Start < 0 || cue.End < cue.Start {
			return nil, fmt.Errorf("srt cue %d: invalid timing %s --> %s", i+1, FormatSRTTimestamp(cue.Start), FormatSRTTimestamp(cue.End))
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n", i+1, FormatSRTTimestamp(cue.Start), FormatSRTTimestamp(cue.End))
		if text := strings.Trim(cue.Text, "\n"); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
