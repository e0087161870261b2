package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/kdfx/pkg/kdf"
)

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	err = kdf.Write(f, kdf.TagMsgpack, "2024-01-01T00:00:00Z", []kdf.ChannelPayload{
		{Label: "PPG", Encoding: kdf.Encoding{Fields: []kdf.Field{{Name: "v", Code: 'B'}}}, SampleRate: 50, TotalValues: 2, Data: []byte{4, 5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(envKdfxConfig, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv(envKdfxOutDir, "")
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(context.Background(), append([]string{"kdfx", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	in := t.TempDir()
	input := writeInput(t, in, "walk.kdf")
	outRoot := t.TempDir()

	stdout, err := runApp(t, "extract", "--file", input, "--out", outRoot, "--workers", "2")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	merged, err := os.ReadFile(filepath.Join(outRoot, "walk", "data.csv"))
	if err != nil {
		t.Fatalf("data.csv: %v", err)
	}
	want := "Timestamp,Milliseconds,FileName,SensorType,Channel,Data\r\n" +
		"2024-01-01T00:00:00.000,0.000000,walk,VS,PPG,4.000000\r\n" +
		"2024-01-01T00:00:00.020,20.000000,walk,VS,PPG,5.000000\r\n"
	if string(merged) != want {
		t.Fatalf("data.csv: got %q want %q", merged, want)
	}
	if !strings.Contains(stdout, "[none] Extracted files successfully") {
		t.Fatalf("stdout missing summary: %q", stdout)
	}
	if !strings.Contains(stdout, "[write_data.csv] ") {
		t.Fatalf("stdout missing merge event: %q", stdout)
	}
}

func TestExtractCommandJSONEvents(t *testing.T) {
	input := writeInput(t, t.TempDir(), "a.kdf")
	stdout, err := runApp(t, "extract", "-f", input, "-o", t.TempDir(), "--json")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if got := lines[len(lines)-1]; got != `{"task_id":null,"message":"Extracted files successfully"}` {
		t.Fatalf("last line: %q", got)
	}
}

func TestExtractCommandReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "good.kdf")
	if err := os.WriteFile(filepath.Join(dir, "bad.kdf"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	outRoot := t.TempDir()
	_, err := runApp(t, "extract", "--dir", dir, "--out", outRoot)
	if err == nil || !strings.Contains(err.Error(), "bad.kdf") {
		t.Fatalf("expected error naming bad.kdf, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outRoot, "good", "data.csv")); err != nil {
		t.Fatalf("good file not extracted: %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	input := writeInput(t, t.TempDir(), "i.kdf")

	stdout, err := runApp(t, "inspect", "--file", input)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"Format:    KDFMSGP", "Channels:  1", "PPG"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("missing %q in %q", want, stdout)
		}
	}

	stdout, err = runApp(t, "inspect", "--file", input, "--json")
	if err != nil {
		t.Fatalf("inspect --json: %v", err)
	}
	if !strings.Contains(stdout, `"label": "PPG"`) {
		t.Fatalf("json output: %q", stdout)
	}
}

func TestUnknownLogLevel(t *testing.T) {
	t.Setenv(envKdfxConfig, filepath.Join(t.TempDir(), "absent.yaml"))
	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	if err := app.Run(context.Background(), []string{"kdfx", "--log-level", "loud", "version"}); err == nil {
		t.Fatal("expected error for unknown log level")
	}
	logLevel = "info"
}
