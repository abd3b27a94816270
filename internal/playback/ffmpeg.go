// /internal/playback/ffmpeg.go
package playback

import (
	"fmt"
	"io"
	"os/exec"
)

// decodePCM is indirected so tests can stream canned PCM without ffmpeg.
var decodePCM = decodeFile

// decodeFile spawns ffmpeg to decode a local audio file into raw signed
// 16-bit little-endian PCM at the sink's sample rate.
func decodeFile(path string) (io.ReadCloser, func(), error) {
	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("command start error: %w", err)
	}

	cleanup := func() {
		cmd.Process.Kill()
		cmd.Wait()
	}

	return reader, cleanup, nil
}
