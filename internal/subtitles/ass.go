package subtitles

import (
	"fmt"
	"strings"
)

var defaultEventFormat = []string{"Layer", "Start", "End", "Style", "Name", "MarginL", "MarginR", "MarginV", "Effect", "Text"}

type assCodec struct{}

func (assCodec) Parse(data []byte) (*Document, error) {
	doc := &Document{Format: FormatASS}
	section := ""
	seenEvents := false

	for lineNo, line := range splitLines(data) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.ToLower(trimmed)
			if section == "[events]" {
				seenEvents = true
				continue
			}
		}

		switch {
		case section != "[events]" && !seenEvents:
			doc.header = append(doc.header, line)
		case section != "[events]":
			doc.trailer = append(doc.trailer, line)
		default:
			key, value, ok := strings.Cut(trimmed, ":")
			if !ok {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "format":
				doc.eventFormat = splitFields(value, -1)
			case "dialogue":
				format := doc.eventFormat
				if len(format) == 0 {
					format = defaultEventFormat
					doc.eventFormat = format
				}
				cue, err := parseDialogue(value, format, len(doc.Cues))
				if err != nil {
					return nil, fmt.Errorf("ass line %d: %w", lineNo+1, err)
				}
				doc.Cues = append(doc.Cues, cue)
			}
		}
	}
	if len(doc.eventFormat) == 0 {
		doc.eventFormat = defaultEventFormat
	}
	return doc, nil
}

func parseDialogue(value string, format []string, index int) (Cue, error) {
	fields := splitFields(value, len(format))
	if len(fields) != len(format) {
		return Cue{}, fmt.Errorf("dialogue has %d fields, format declares %d", len(fields), len(format))
	}
	startIdx, endIdx, textIdx := fieldIndexes(format)
	if startIdx < 0 || endIdx < 0 || textIdx < 0 {
		return Cue{}, fmt.Errorf("event format lacks Start, End or Text")
	}
	start, err := parseASSTimestamp(fields[startIdx])
	if err != nil {
		return Cue{}, err
	}
	end, err := parseASSTimestamp(fields[endIdx])
	if err != nil {
		return Cue{}, err
	}
	return Cue{
		Index: index,
		Start: start,
		End:   end,
		Text:  fields[textIdx],
		event: fields,
	}, nil
}

func (assCodec) Serialize(doc *Document) ([]byte, error) {
	format := doc.eventFormat
	if len(format) == 0 {
		format = defaultEventFormat
	}
	startIdx, endIdx, textIdx := fieldIndexes(format)
	if startIdx < 0 || endIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("event format lacks Start, End or Text")
	}

	var b strings.Builder
	header := doc.header
	if len(header) == 0 {
		header = []string{"[Script Info]", "ScriptType: v4.00+", ""}
	}
	for _, line := range header {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("[Events]\n")
	b.WriteString("Format: " + strings.Join(format, ", ") + "\n")

	for i, cue := range doc.Cues {
		if cue.End < cue.Start {
			return nil, fmt.Errorf("ass cue %d: end precedes start", i)
		}
		fields := make([]string, len(format))
		if len(cue.event) == len(format) {
			copy(fields, cue.event)
		} else {
			for j, name := range format {
				fields[j] = defaultFieldValue(name)
			}
		}
		fields[startIdx] = formatASSTimestamp(cue.Start)
		fields[endIdx] = formatASSTimestamp(cue.End)
		fields[textIdx] = strings.ReplaceAll(cue.Text, "\n", `\N`)
		b.WriteString("Dialogue: " + strings.Join(fields, ",") + "\n")
	}

	if len(doc.trailer) > 0 {
		b.WriteByte('\n')
		for _, line := range doc.trailer {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return []byte(b.String()), nil
}

// splitFields splits a comma separated field list. With limit > 0 the final
// field keeps any remaining commas, which is how ASS stores dialogue text.
func splitFields(value string, limit int) []string {
	value = strings.TrimLeft(value, " ")
	parts := strings.SplitN(value, ",", limit)
	for i := range parts {
		if limit > 0 && i == len(parts)-1 {
			continue
		}
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func fieldIndexes(format []string) (start, end, text int) {
	start, end, text = -1, -1, -1
	for i, name := range format {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "start":
			start = i
		case "end":
			end = i
		case "text":
			text = i
		}
	}
	return start, end, text
}

func defaultFieldValue(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "layer":
		return "0"
	case "style":
		return "Default"
	case "marginl", "marginr", "marginv":
		return "0"
	default:
		return ""
	}
}
