package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/playsync/internal/shared"
	tu "github.com/desertthunder/playsync/internal/testing"
	"github.com/urfave/cli/v3"
)

func newTestRunner(t *testing.T, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	if opts.Output == nil {
		opts.Output = output
	}
	if opts.Config == nil {
		config := shared.DefaultConfig()
		config.Device.ID = "dev-test"
		config.Device.Name = "Test Device"
		config.Cache.Dir = t.TempDir()
		opts.Config = config
	}
	if opts.DB == nil {
		opts.DB = tu.MustMigratedDB(t)
	}

	return NewRunner(opts), output
}

func run(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "playsync", Commands: runner.register()}
	return app.Run(context.Background(), append([]string{"playsync"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.bus == nil {
				t.Error("expected bus to be created")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			if err := runner.writeJSON(data, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})
}

func TestSetupCommand(t *testing.T) {
	wd := tu.MustGetwd(t)
	dir := t.TempDir()
	tu.MustChdir(t, dir)
	defer tu.MustChdir(t, wd)

	runner, _ := newTestRunner(t, RunnerOpts{})
	configPath := filepath.Join(dir, "config.toml")

	if err := run(t, runner, "setup", "--config", configPath); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tu.AssertFileExists(t, configPath)

	content := tu.MustReadFile(t, configPath)
	if !strings.Contains(content, "[device]") {
		t.Error("created config missing [device] section")
	}
}

func TestTrackCommands(t *testing.T) {
	runner, output := newTestRunner(t, RunnerOpts{})

	err := run(t, runner, "track", "add",
		"--id", "t1", "--hash", "abc123", "--cloud-key", "tracks/abc123", "--duration", "240")
	if err != nil {
		t.Fatalf("track add failed: %v", err)
	}
	if !strings.Contains(output.String(), "t1") {
		t.Errorf("track add did not echo the id: %s", output.String())
	}

	output.Reset()
	if err := run(t, runner, "track", "ls"); err != nil {
		t.Fatalf("track ls failed: %v", err)
	}
	listing := output.String()
	if !strings.Contains(listing, "t1") || !strings.Contains(listing, "abc123") {
		t.Errorf("track ls missing the indexed track: %s", listing)
	}
	if !strings.Contains(listing, "cloud") {
		t.Errorf("track without local path should list as cloud: %s", listing)
	}
}

func TestTrackAddGeneratesID(t *testing.T) {
	runner, output := newTestRunner(t, RunnerOpts{})

	if err := run(t, runner, "track", "add", "--hash", "feedbeef"); err != nil {
		t.Fatalf("track add failed: %v", err)
	}
	if strings.TrimSpace(output.String()) == "" {
		t.Error("expected a generated track id on output")
	}
}

func TestStateCommands(t *testing.T) {
	runner, output := newTestRunner(t, RunnerOpts{})

	if err := run(t, runner, "state", "set", "--track", "t9", "--position", "42.5", "--playing"); err != nil {
		t.Fatalf("state set failed: %v", err)
	}

	output.Reset()
	if err := run(t, runner, "state", "get"); err != nil {
		t.Fatalf("state get failed: %v", err)
	}
	got := output.String()
	if !strings.Contains(got, "t9") || !strings.Contains(got, "42.5") {
		t.Errorf("state get missing the written record: %s", got)
	}
	if !strings.Contains(got, "Test Device") {
		t.Errorf("state get missing device name: %s", got)
	}

	// The record came from this device, so excluding own writes hides it
	output.Reset()
	if err := run(t, runner, "state", "get", "--others"); err != nil {
		t.Fatalf("state get --others failed: %v", err)
	}
	if !strings.Contains(output.String(), "No playback state") {
		t.Errorf("expected own record to be excluded: %s", output.String())
	}

	output.Reset()
	if err := run(t, runner, "state", "clear"); err != nil {
		t.Fatalf("state clear failed: %v", err)
	}
	output.Reset()
	if err := run(t, runner, "state", "get"); err != nil {
		t.Fatalf("state get failed: %v", err)
	}
	if !strings.Contains(output.String(), "No playback state") {
		t.Errorf("expected empty state after clear: %s", output.String())
	}
}

func TestResolveCommand(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(audioPath, []byte("audio bytes"), 0644); err != nil {
		t.Fatalf("failed to write audio file: %v", err)
	}

	runner, output := newTestRunner(t, RunnerOpts{})

	err := run(t, runner, "track", "add", "--id", "t1", "--hash", "h1", "--path", audioPath)
	if err != nil {
		t.Fatalf("track add failed: %v", err)
	}

	output.Reset()
	if err := run(t, runner, "resolve", "t1"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	got := output.String()
	if !strings.Contains(got, "local") {
		t.Errorf("expected the local tier, got: %s", got)
	}
	if !strings.Contains(got, "file://"+audioPath) {
		t.Errorf("expected a file URL, got: %s", got)
	}
}

func TestResolveCommandUnknownTrack(t *testing.T) {
	runner, _ := newTestRunner(t, RunnerOpts{})

	if err := run(t, runner, "resolve", "nope"); err == nil {
		t.Fatal("expected an error for an unindexed track")
	}
}

func TestCacheCommands(t *testing.T) {
	runner, output := newTestRunner(t, RunnerOpts{})

	if err := run(t, runner, "cache", "ls"); err != nil {
		t.Fatalf("cache ls failed: %v", err)
	}
	if !strings.Contains(output.String(), "Cache is empty") {
		t.Errorf("expected an empty cache: %s", output.String())
	}

	output.Reset()
	if err := run(t, runner, "cache", "clear"); err != nil {
		t.Fatalf("cache clear failed: %v", err)
	}
	if !strings.Contains(output.String(), "Cleared 0") {
		t.Errorf("expected a zero-entry clear: %s", output.String())
	}
}

func TestResumeCommandNoState(t *testing.T) {
	runner, output := newTestRunner(t, RunnerOpts{})

	if err := run(t, runner, "resume", "--yes"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !strings.Contains(output.String(), "Nothing to resume") {
		t.Errorf("expected nothing to resume: %s", output.String())
	}
}

func TestResumeCommandSameDevice(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(audioPath, []byte("audio bytes"), 0644); err != nil {
		t.Fatalf("failed to write audio file: %v", err)
	}

	runner, output := newTestRunner(t, RunnerOpts{})

	err := run(t, runner, "track", "add", "--id", "t1", "--hash", "h1", "--path", audioPath, "--duration", "300")
	if err != nil {
		t.Fatalf("track add failed: %v", err)
	}
	if err := run(t, runner, "state", "set", "--track", "t1", "--position", "10"); err != nil {
		t.Fatalf("state set failed: %v", err)
	}

	output.Reset()
	if err := run(t, runner, "resume", "--yes", "--duration", "300"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !strings.Contains(output.String(), "Restored t1") {
		t.Errorf("expected a same-device restore: %s", output.String())
	}
}
