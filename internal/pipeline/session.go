package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"peaceproc/internal/fileutil"
	"peaceproc/internal/services"
)

// Artifact file names inside a session directory.
const (
	ScriptName    = "script.txt"
	ImageName     = "image.png"
	NarrationName = "narration.mp3"
	MusicName     = "background.mp3"
	VideoName     = "final_video.mp4"
)

// Session kinds nest step-by-step outputs under the output root.
const (
	KindImages = "images"
	KindVideos = "videos"
	kindTemp   = "temp"
)

const sessionIDLayout = "20060102_150405"

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// NewSessionID formats the clock as a timestamp session identifier.
func NewSessionID(clock Clock) string {
	if clock == nil {
		clock = time.Now
	}
	return clock().Format(sessionIDLayout)
}

// SessionPath returns root/<kind>/<id>.
func SessionPath(root, kind, id string) string {
	return filepath.Join(root, kind, id)
}

// TempRunPath returns root/temp/<timestamp>, the default output of a full run.
func TempRunPath(root string, clock Clock) string {
	return filepath.Join(root, kindTemp, NewSessionID(clock))
}

// EnsureSession creates the session directory if absent.
func EnsureSession(path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrValidation, "session", "ensure", "output path is empty", nil)
	}
	if err := fileutil.EnsureDir(path); err != nil {
		return services.Wrap(services.ErrConfiguration, "session", "ensure", path, err)
	}
	return nil
}

// ResolveImageReference maps a caller-supplied image reference to a file.
// A leading /images/ or /videos/ is a logical reference into uploadRoot.
// Other relative paths are tried under uploadRoot first and then against the
// working directory. The second return is false when the reference is empty,
// escapes uploadRoot or names no existing file.
func ResolveImageReference(ref, uploadRoot string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	switch {
	case strings.HasPrefix(ref, "/images/") || strings.HasPrefix(ref, "/videos/"):
		resolved, inside := underRoot(uploadRoot, strings.TrimPrefix(ref, "/"))
		return resolved, inside && fileutil.Exists(resolved)
	case filepath.IsAbs(ref):
		return ref, fileutil.Exists(ref)
	}

	if strings.TrimSpace(uploadRoot) != "" {
		if resolved, inside := underRoot(uploadRoot, ref); inside && fileutil.Exists(resolved) {
			return resolved, true
		}
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return ref, false
	}
	return abs, fileutil.Exists(abs)
}

// underRoot joins rel under root and reports whether the result stays inside.
func underRoot(root, rel string) (string, bool) {
	root = filepath.Clean(root)
	joined := filepath.Join(root, rel)
	back, err := filepath.Rel(root, joined)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return joined, false
	}
	return joined, true
}

func sessionIDFor(dir string) string {
	return filepath.Base(filepath.Clean(dir))
}
