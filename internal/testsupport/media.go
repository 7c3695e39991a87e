package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MediaStubs locates the stub media binaries and the argv log written by the
// ffmpeg stub.
type MediaStubs struct {
	FFmpeg  string
	FFprobe string
	ArgLog  string
}

// WriteMediaStubs writes shell-script stand-ins for ffmpeg and ffprobe into dir.
//
// The ffprobe stub reports narrationSeconds for any path containing
// "narration" and musicSeconds otherwise. The ffmpeg stub appends its argv to
// ArgLog, answers -version, and writes a small payload to its last argument.
// With failEncode set, every invocation other than -version exits 1.
func WriteMediaStubs(t testing.TB, dir string, narrationSeconds, musicSeconds float64, failEncode bool) MediaStubs {
	t.Helper()
	mkdirAll(t, dir)

	stubs := MediaStubs{
		FFmpeg:  filepath.Join(dir, "ffmpeg"),
		FFprobe: filepath.Join(dir, "ffprobe"),
		ArgLog:  filepath.Join(dir, "ffmpeg.args"),
	}

	failLine := ""
	if failEncode {
		failLine = "echo 'stub encode failure' >&2\nexit 1\n"
	}
	ffmpeg := strings.Join([]string{
		"#!/bin/sh",
		fmt.Sprintf("echo \"$@\" >> %q", stubs.ArgLog),
		"if [ \"$1\" = \"-version\" ]; then echo 'ffmpeg version stub'; exit 0; fi",
		failLine + "for last; do :; done",
		"printf 'stub-media' > \"$last\"",
		"",
	}, "\n")
	ffprobe := strings.Join([]string{
		"#!/bin/sh",
		"for last; do :; done",
		"case \"$last\" in",
		fmt.Sprintf("  *narration*) d=%g ;;", narrationSeconds),
		fmt.Sprintf("  *) d=%g ;;", musicSeconds),
		"esac",
		"printf '{\"streams\":[],\"format\":{\"duration\":\"%s\"}}\\n' \"$d\"",
		"",
	}, "\n")

	if err := os.WriteFile(stubs.FFmpeg, []byte(ffmpeg), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	if err := os.WriteFile(stubs.FFprobe, []byte(ffprobe), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return stubs
}

// ReadArgLog returns one entry per recorded ffmpeg invocation.
func ReadArgLog(t testing.TB, stubs MediaStubs) []string {
	t.Helper()
	data, err := os.ReadFile(stubs.ArgLog)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read arg log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
