package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytframes/internal/testsupport"
)

const testVideoURL = "https://www.youtube.com/watch?v=abc123"

// Three 2x2 frames at 1 fps.
const probeJSON = `{"streams":[{"codec_type":"video","width":2,"height":2,"avg_frame_rate":"1/1","nb_frames":"3"}],"format":{"duration":"3.0"}}`

type cliTestEnv struct {
	baseDir    string
	configPath string
	archiveDir string
	stagingDir string
}

// setupCLITestEnv writes stub yt-dlp, ffprobe, and ffmpeg scripts and a
// config file that points every directory and binary into a temp dir.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	bin := filepath.Join(base, "bin")

	ytdlp := testsupport.WriteScript(t, filepath.Join(bin, "yt-dlp"), `if [ "$1" = "--version" ]; then echo 2025.01.01; exit 0; fi
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
dir=$(dirname "$out")
printf 'data' > "$dir/abc123.mp4"
echo "$dir/abc123.mp4"
echo "Cats and dogs"
echo "abc123"
echo "3.0"
`)
	ffprobe := testsupport.WriteScript(t, filepath.Join(bin, "ffprobe"), `case "$*" in *-version*) echo "ffprobe version stub"; exit 0;; esac
echo '`+probeJSON+`'
`)
	// Mid gray (0x80) rgb24 frames.
	ffmpeg := testsupport.WriteScript(t, filepath.Join(bin, "ffmpeg"), `case "$*" in *-version*) echo "ffmpeg version stub"; exit 0;; esac
head -c 36 /dev/zero | tr '\000' '\200'
`)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		archiveDir: filepath.Join(base, "archives"),
		stagingDir: filepath.Join(base, "staging"),
	}
	content := fmt.Sprintf(`[paths]
staging_dir = %q
archive_dir = %q
state_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[download]
binary = %q

[sampling]
interval_seconds = 1.0
ffmpeg_binary = %q
ffprobe_binary = %q

[archive]
trigger_word = ""
`,
		env.stagingDir, env.archiveDir, filepath.Join(base, "state"), filepath.Join(base, "logs"),
		ytdlp, ffmpeg, ffprobe,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
