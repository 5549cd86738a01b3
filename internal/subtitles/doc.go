// Package subtitles parses and serializes the subtitle formats enchant
// accepts (SubRip .srt and Advanced SubStation Alpha .ass).
//
// A Document holds the ordered cues plus whatever format-specific framing is
// needed to write the file back out; for ASS that is the script header,
// styles, and event format line. Cue times are time.Duration offsets from the
// start of the video. Normalize converts legacy encodings to UTF-8 before
// content is stored, so codecs only ever see UTF-8 text.
package subtitles
