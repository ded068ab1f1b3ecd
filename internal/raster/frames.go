package raster

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// framePattern names frames so ffmpeg's image2 demuxer reads them in order.
const framePattern = "frame_%06d.png"

// FramePath returns the file name of frame i inside dir.
func FramePath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf(framePattern, i))
}

// listFilesSorted lists files in dir matching suffix, sorted by name.
func listFilesSorted(dir, suffix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), strings.ToLower(suffix)) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// CleanFrames creates dir and removes any PNG frames left by a previous run.
func CleanFrames(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files, err := listFilesSorted(dir, ".png")
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return err
		}
	}
	return nil
}

// EncodeMP4 turns the frames in dir into an H.264 video. It is a no-op,
// reported through the returned error, when ffmpeg is not on PATH.
func EncodeMP4(dir string, fps int, outMP4 string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found on PATH: %w", err)
	}

	cmd := exec.Command("ffmpeg",
		"-y",
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", filepath.Join(dir, framePattern),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		outMP4,
	)

	log.Printf("Encoding MP4 with ffmpeg...")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg encoding failed: %w\n%s", err, out)
	}
	log.Printf("MP4 created: %s", outMP4)
	return nil
}
