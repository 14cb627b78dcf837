package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"framecast/internal/ipc"
	"framecast/internal/journal"
	"framecast/internal/testsupport"
)

func TestScenesCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"scenes"}, "", "")
	if err != nil {
		t.Fatalf("scenes: %v", err)
	}
	for _, name := range []string{"square_to_circle", "staggered_row", "orbiting_dot"} {
		requireContains(t, out, name)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)
	out, _, err = runCLI(t, []string{"config", "validate"}, "", configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, configPath)
}

func TestStatusAndFrameCommands(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithScene("square_to_circle"))
	sc := env.runtime.Scene()
	waitFor(t, 2*time.Second, func() bool { return sc.State().Live != nil })
	addr := env.runtime.Addr()

	out, _, err := runCLI(t, []string{"status"}, addr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "square_to_circle")
	requireContains(t, out, env.runtime.SessionID())
	requireContains(t, out, "#0 play")

	out, _, err = runCLI(t, []string{"status", "--json"}, addr, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var status ipc.RendererStatusResponse
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.LiveUnit == nil || status.LiveUnit.Index != 0 {
		t.Fatalf("unexpected status %+v", status)
	}

	out, _, err = runCLI(t, []string{"frame", "0", "0.5"}, addr, env.configPath)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	requireContains(t, out, "Animation: ShowCreation")
	requireContains(t, out, "Points")

	if _, _, err := runCLI(t, []string{"frame", "9", "0"}, addr, env.configPath); err == nil || !strings.Contains(err.Error(), "not implemented") {
		t.Fatalf("expected skip forward error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"frame", "x", "0"}, addr, env.configPath); err == nil {
		t.Fatal("expected invalid index error")
	}
}

func TestStatusWithoutServer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)
	_, _, err := runCLI(t, []string{"status"}, closedAddr(t), configPath)
	if err == nil || !strings.Contains(err.Error(), "connect to frame server") {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestJournalCommands(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithScene("square_to_circle"), testsupport.WithSkipAnimations())
	select {
	case <-env.runtime.Scene().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scene did not finish")
	}
	units := env.runtime.Scene().State().Cached

	out, _, err := runCLI(t, []string{"sessions"}, "", env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, env.runtime.SessionID())

	out, _, err = runCLI(t, []string{"keyframes", "--json"}, "", env.configPath)
	if err != nil {
		t.Fatalf("keyframes: %v", err)
	}
	var records []journal.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode keyframes: %v", err)
	}
	if len(records) != units {
		t.Fatalf("expected %d keyframes, got %d", units, len(records))
	}
	for i, rec := range records {
		if rec.Index != i || !rec.Skipped {
			t.Fatalf("unexpected record %d: %+v", i, rec)
		}
	}

	out, _, err = runCLI(t, []string{"keyframes", "--session", env.runtime.SessionID()}, "", env.configPath)
	if err != nil {
		t.Fatalf("keyframes --session: %v", err)
	}
	requireContains(t, out, "FadeOut")
}
