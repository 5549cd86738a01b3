package subtitles

import (
	"errors"
	"strings"
	"testing"
	"time"

	"enchant/internal/apperr"
)

const sampleSRT = "1\r\n00:00:01,500 --> 00:00:03,000\r\nHello there.\r\n\r\n2\r\n00:00:04,000 --> 00:00:06,250\r\n<i>General</i> Kenobi!\r\nSecond line\r\n\r\n"

const sampleASS = `[Script Info]
Title: Sample
ScriptType: v4.00+

[V4+ Styles]
Format: Name, Fontname, Fontsize
Style: Default,Arial,20

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.50,0:00:03.00,Default,,0,0,0,,{\i1}Hello, there{\i0}
Comment: 0,0:00:02.00,0:00:03.00,Default,,0,0,0,,note to self
Dialogue: 1,0:01:04.00,0:01:06.25,Top,Bob,10,10,10,,Line one\NLine two
`

func TestParseSRT(t *testing.T) {
	doc, err := Parse([]byte(sampleSRT), FormatSRT)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	first, second := doc.Cues[0], doc.Cues[1]
	if first.Index != 1 || first.Start != 1500*time.Millisecond || first.End != 3*time.Second || first.Text != "Hello there." {
		t.Fatalf("unexpected first cue: %+v", first)
	}
	if second.Text != "<i>General</i> Kenobi!\nSecond line" {
		t.Fatalf("unexpected second cue text %q", second.Text)
	}
	if got := second.PlainText(); got != "General Kenobi!\nSecond line" {
		t.Fatalf("unexpected plain text %q", got)
	}
}

func TestParseSRTKeepsBlankLinesInsideCueText(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:02,000\nfirst\n\n" +
		"2\n00:00:03,000 --> 00:00:05,000\nline one\n\nline after blank\n\n\n" +
		"00:00:06,000 --> 00:00:07,000\nno number\n"
	doc, err := Parse([]byte(input), FormatSRT)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Cues) != 3 {
		t.Fatalf("expected 3 cues, got %d: %+v", len(doc.Cues), doc.Cues)
	}
	if got := doc.Cues[1].Text; got != "line one\n\nline after blank" {
		t.Fatalf("unexpected second cue text %q", got)
	}
	if doc.Cues[2].Index != 3 || doc.Cues[2].Text != "no number" {
		t.Fatalf("unexpected third cue: %+v", doc.Cues[2])
	}

	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	again, err := Parse(out, FormatSRT)
	if err != nil || len(again.Cues) != 3 || again.Cues[1].Text != doc.Cues[1].Text {
		t.Fatalf("serialized cues did not parse back: %v %+v", err, again)
	}
}

func TestParseSRTRejectsLeadingText(t *testing.T) {
	_, err := Parse([]byte("intro\n1\n00:00:01,000 --> 00:00:02,000\nhi\n"), FormatSRT)
	if err == nil || !strings.Contains(err.Error(), "block 1") {
		t.Fatalf("expected block error, got %v", err)
	}
}

func TestParseSRTRejectsMalformedTiming(t *testing.T) {
	_, err := Parse([]byte("1\n00:00:xx,000 --> 00:00:02,000\nbad\n"), FormatSRT)
	if err == nil || !strings.Contains(err.Error(), "block 1") {
		t.Fatalf("expected block error, got %v", err)
	}
}

func TestSerializeSRTRenumbers(t *testing.T) {
	doc := &Document{Format: FormatSRT, Cues: []Cue{
		{Index: 7, Start: 5 * time.Second, End: 9 * time.Second, Text: "kept"},
		{Index: 9, Start: 61*time.Second + 20*time.Millisecond, End: 62 * time.Second, Text: "two\nlines"},
	}}
	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := "1\n00:00:05,000 --> 00:00:09,000\nkept\n\n2\n00:01:01,020 --> 00:01:02,000\ntwo\nlines\n\n"
	if string(out) != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", out, want)
	}

	empty, err := Serialize(doc.WithCues(nil))
	if err != nil {
		t.Fatalf("Serialize empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty output, got %q", empty)
	}
	reparsed, err := Parse(empty, FormatSRT)
	if err != nil || len(reparsed.Cues) != 0 {
		t.Fatalf("expected empty file to parse cleanly, got %v %v", reparsed, err)
	}
}

func TestParseASS(t *testing.T) {
	doc, err := Parse([]byte(sampleASS), FormatASS)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 dialogue cues, got %d", len(doc.Cues))
	}
	first := doc.Cues[0]
	if first.Index != 0 || first.Start != 1500*time.Millisecond || first.End != 3*time.Second {
		t.Fatalf("unexpected first cue: %+v", first)
	}
	if first.Text != `{\i1}Hello, there{\i0}` {
		t.Fatalf("text with commas not preserved: %q", first.Text)
	}
	if got := first.PlainText(); got != "Hello, there" {
		t.Fatalf("unexpected plain text %q", got)
	}
	second := doc.Cues[1]
	if second.Index != 1 || second.Start != 64*time.Second || second.End != 66*time.Second+250*time.Millisecond {
		t.Fatalf("unexpected second cue: %+v", second)
	}
	if got := second.PlainText(); got != "Line one\nLine two" {
		t.Fatalf("unexpected plain text %q", got)
	}
}

func TestSerializeASSKeepsHeaderAndFields(t *testing.T) {
	doc, err := Parse([]byte(sampleASS), FormatASS)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	shifted := doc.WithCues([]Cue{doc.Cues[1].Shift(-60 * time.Second)})
	out, err := Serialize(shifted)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	text := string(out)
	for _, fragment := range []string{
		"[Script Info]",
		"Style: Default,Arial,20",
		"[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n",
		`Dialogue: 1,0:00:04.00,0:00:06.25,Top,Bob,10,10,10,,Line one\NLine two`,
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, text)
		}
	}
	if strings.Contains(text, "Hello") || strings.Contains(text, "Comment:") {
		t.Fatalf("unexpected dropped content in output:\n%s", text)
	}

	reparsed, err := Parse(out, FormatASS)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(reparsed.Cues) != 1 || reparsed.Cues[0].Start != 4*time.Second {
		t.Fatalf("unexpected reparsed cues: %+v", reparsed.Cues)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{".srt": FormatSRT, ".SRT": FormatSRT, "ass": FormatASS, ".Ass": FormatASS}
	for input, want := range cases {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseFormat(".vtt"); !errors.Is(err, apperr.ErrFormatUnsupported) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestTimestamps(t *testing.T) {
	cases := []struct {
		input string
		want  time.Duration
	}{
		{"01:23:04,000", time.Hour + 23*time.Minute + 4*time.Second},
		{"00:00:01.5", 1500 * time.Millisecond},
		{"00:00:02", 2 * time.Second},
		{"100:00:00,001", 100*time.Hour + time.Millisecond},
	}
	for _, tc := range cases {
		got, err := ParseSRTTimestamp(tc.input)
		if err != nil {
			t.Fatalf("ParseSRTTimestamp(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSRTTimestamp(%q) = %v want %v", tc.input, got, tc.want)
		}
	}
	for _, bad := range []string{"", "1:2", "00:61:00,000", "aa:00:00,000"} {
		if _, err := ParseSRTTimestamp(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if got := FormatSRTTimestamp(time.Hour + 23*time.Minute + 4*time.Second + 7*time.Millisecond); got != "01:23:04,007" {
		t.Fatalf("unexpected srt timestamp %q", got)
	}
	if got := FormatClock(2*time.Hour + 3*time.Minute + 4*time.Second + 900*time.Millisecond); got != "02:03:04" {
		t.Fatalf("unexpected clock %q", got)
	}
	if got := formatASSTimestamp(64*time.Second + 259*time.Millisecond); got != "0:01:04.25" {
		t.Fatalf("unexpected ass timestamp %q", got)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name     string
		input    []byte
		want     string
		encoding string
	}{
		{"utf8", []byte("héllo\r\nworld"), "héllo\nworld", "utf-8"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("hi")...), "hi", "utf-8"},
		{"utf16le", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi", "utf-16le"},
		{"gbk", []byte{0xC4, 0xE3, 0xBA, 0xC3}, "你好", "gb18030"},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, "café", "windows-1252"},
		{"latin1 sentence", []byte("M\xe9nage pr\xe9sent chez H\xe9l\xe8ne"), "Ménage présent chez Hélène", "windows-1252"},
		{"latin1 quotes", []byte("\x93Voil\xe0\x94 d\xe9j\xe0"), "\u201cVoilà\u201d déjà", "windows-1252"},
		{"gbk sentence", []byte{0xCE, 0xD2, 0xC3, 0xC7, 0xD7, 0xDF, ' ', 0xB0, 0xC9}, "我们走 吧", "gb18030"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, enc, err := Normalize(tc.input)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if string(got) != tc.want || enc != tc.encoding {
				t.Fatalf("got %q (%s) want %q (%s)", got, enc, tc.want, tc.encoding)
			}
		})
	}
}
