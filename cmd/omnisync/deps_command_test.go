package main

import (
	"strings"
	"testing"

	"omnisync/internal/testsupport"
)

func TestDepsReportsVersions(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithFFmpegScripts(
		"echo 'ffmpeg version 7.1-test'\n",
		"echo 'ffprobe version 7.1-test'\n",
	))

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps: %v\n%s", err, out)
	}
	requireContains(t, out, "== Binaries ==")
	requireContains(t, out, "ffmpeg version 7.1-test")
	requireContains(t, out, "ffprobe version 7.1-test")
	requireContains(t, out, "== Environment ==")
	requireContains(t, out, "Work directory:")
	if strings.Contains(out, "[ERROR]") {
		t.Fatalf("unexpected error line:\n%s", out)
	}
}

func TestDepsFailsWhenBinaryMissing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	env.cfg.FFmpeg.FFmpegBinary = "omnisync-missing-ffmpeg"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err == nil {
		t.Fatalf("expected missing dependency error\n%s", out)
	}
	requireContains(t, err.Error(), "FFmpeg")
	requireContains(t, out, "[ERROR]")
}
