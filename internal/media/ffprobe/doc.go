// Package ffprobe wraps ffprobe's JSON output for the video assembler.
//
// Inspect runs ffprobe against a file and decodes its format and stream
// metadata. Duration is the narrow helper the assembler uses to size the
// mixed narration track.
package ffprobe
