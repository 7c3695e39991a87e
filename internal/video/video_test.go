package video

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"peaceproc/internal/testsupport"
)

type fixture struct {
	req   Request
	stubs testsupport.MediaStubs
}

func newFixture(t *testing.T, narrationSeconds, musicSeconds float64, failEncode bool) fixture {
	t.Helper()
	dir := t.TempDir()
	stubs := testsupport.WriteMediaStubs(t, filepath.Join(dir, "bin"), narrationSeconds, musicSeconds, failEncode)
	session := filepath.Join(dir, "session")
	req := Request{
		Image:     filepath.Join(session, "image.png"),
		Narration: filepath.Join(session, "narration.mp3"),
		Music:     filepath.Join(dir, "music", "track.mp3"),
		Dest:      filepath.Join(session, "final_video.mp4"),
	}
	for _, path := range []string{req.Image, req.Narration, req.Music} {
		testsupport.WriteFile(t, path, 16)
	}
	return fixture{req: req, stubs: stubs}
}

func (f fixture) assembler() *Assembler {
	return New(Config{FFmpegBinary: f.stubs.FFmpeg, FFprobeBinary: f.stubs.FFprobe, MixTimeout: 5 * time.Second}, nil)
}

func TestCreateVideoLoopsShortMusic(t *testing.T) {
	f := newFixture(t, 90, 30, false)
	result := f.assembler().CreateVideo(context.Background(), f.req)
	if result.Kind != KindProduced || result.Path != f.req.Dest {
		t.Fatalf("expected produced video, got %+v", result)
	}
	testsupport.RequireFile(t, f.req.Dest)

	calls := testsupport.ReadArgLog(t, f.stubs)
	if len(calls) != 3 || calls[0] != "-version" {
		t.Fatalf("expected version, mix and mux calls, got %q", calls)
	}
	mix := calls[1]
	if !strings.Contains(mix, "[1:a]volume=0.4,aloop=loop=-1:size=2e+09[music];[0:a][music]amix=inputs=2:duration=first[aout]") {
		t.Fatalf("mix should loop music: %s", mix)
	}
	if !strings.Contains(mix, "-t 90 ") {
		t.Fatalf("mix must clamp to narration duration: %s", mix)
	}
	if !strings.Contains(calls[2], "-shortest") || !strings.Contains(calls[2], "-tune stillimage") {
		t.Fatalf("unexpected mux args: %s", calls[2])
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(f.req.Dest), MixedAudioName)); !os.IsNotExist(err) {
		t.Fatal("mixed audio should be removed after success")
	}
}

func TestCreateVideoTrimsLongMusic(t *testing.T) {
	for _, music := range []float64{45, 300} {
		f := newFixture(t, 45, music, false)
		result := f.assembler().CreateVideo(context.Background(), f.req)
		if result.Kind != KindProduced {
			t.Fatalf("music %v: expected produced, got %+v", music, result)
		}
		mix := testsupport.ReadArgLog(t, f.stubs)[1]
		if strings.Contains(mix, "aloop") {
			t.Fatalf("music %v: must not loop: %s", music, mix)
		}
		if !strings.Contains(mix, "[1:a]volume=0.4[music]") || !strings.Contains(mix, "-t 45 ") {
			t.Fatalf("music %v: unexpected mix args %s", music, mix)
		}
	}
}

func TestCreateVideoDurationOverride(t *testing.T) {
	f := newFixture(t, 20, 20, false)
	f.req.Duration = 15 * time.Second
	if result := f.assembler().CreateVideo(context.Background(), f.req); result.Kind != KindProduced {
		t.Fatalf("expected produced, got %+v", result)
	}
	mux := testsupport.ReadArgLog(t, f.stubs)[2]
	if strings.Contains(mux, "-shortest") || !strings.Contains(mux, "-t 15 ") {
		t.Fatalf("override should replace -shortest: %s", mux)
	}
}

func TestCreateVideoPlaceholderWhenFFmpegMissing(t *testing.T) {
	f := newFixture(t, 10, 10, false)
	assembler := New(Config{FFmpegBinary: filepath.Join(t.TempDir(), "nope"), FFprobeBinary: f.stubs.FFprobe}, nil)

	result := assembler.CreateVideo(context.Background(), f.req)
	if !result.Placeholder() || result.Path != f.req.Dest {
		t.Fatalf("expected placeholder, got %+v", result)
	}
	if result.MarkerPath != f.req.Dest+".placeholder.txt" {
		t.Fatalf("unexpected marker path %q", result.MarkerPath)
	}
	data, err := os.ReadFile(result.MarkerPath)
	if err != nil || !strings.Contains(string(data), "placeholder for a video file") {
		t.Fatalf("unexpected marker %q %v", data, err)
	}
	if !strings.Contains(result.Reason, "tool unavailable") {
		t.Fatalf("reason should carry tool kind: %q", result.Reason)
	}
	if _, err := os.Stat(f.req.Dest); !os.IsNotExist(err) {
		t.Fatal("no video should exist after fallback")
	}
}

func TestCreateVideoPlaceholderOnEncodeFailure(t *testing.T) {
	f := newFixture(t, 10, 10, true)
	result := f.assembler().CreateVideo(context.Background(), f.req)
	if !result.Placeholder() {
		t.Fatalf("expected placeholder, got %+v", result)
	}
	if !strings.Contains(result.Reason, "stub encode failure") {
		t.Fatalf("reason should include ffmpeg stderr: %q", result.Reason)
	}
	testsupport.RequireFile(t, result.MarkerPath)
}

func TestMixArgsFormatsVolume(t *testing.T) {
	args := MixArgs("n.mp3", "m.mp3", "out.mp3", 0.25, 12.5, false)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "volume=0.25[music]") || !strings.HasSuffix(joined, "-t 12.5 out.mp3") {
		t.Fatalf("unexpected args %s", joined)
	}
}
