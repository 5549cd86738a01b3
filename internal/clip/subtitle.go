package clip

import (
	"enchant/internal/subtitles"
)

// ExtractSubtitle keeps the cues of data that lie entirely inside r, shifts
// them so r.Start becomes zero and serializes them in the same format. It
// returns the encoded excerpt and the number of cues kept. An excerpt with
// no cues is still a valid document.
func ExtractSubtitle(data []byte, format subtitles.Format, r Range) ([]byte, int, error) {
	doc, err := subtitles.Parse(data, format)
	if err != nil {
		return nil, 0, err
	}
	kept := selectCues(doc.Cues, r)
	out, err := subtitles.Serialize(doc.WithCues(kept))
	if err != nil {
		return nil, 0, err
	}
	return out, len(kept), nil
}

func selectCues(cues []subtitles.Cue, r Range) []subtitles.Cue {
	kept := make([]subtitles.Cue, 0, len(cues))
	for _, cue := range cues {
		if !r.Contains(cue.Start, cue.End) {
			continue
		}
		kept = append(kept, cue.Shift(-r.Start))
	}
	return kept
}
