package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root, dir string, m Manifest) {
	t.Helper()

	pluginDir := filepath.Join(root, dir)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "cursor-control", Manifest{
		Name:        "cursor-control",
		Version:     "1.0.0",
		Description: "Pointer control",
		Executable:  "cursor-control",
		Actions:     []string{"move", "scroll", "click-down", "click-up"},
		Streaming:   true,
	})

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := m.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	p := plugins[0]
	if p.Manifest.Name != "cursor-control" {
		t.Errorf("Name = %q, want cursor-control", p.Manifest.Name)
	}
	if !p.Manifest.Streaming {
		t.Error("Streaming should be read from the manifest")
	}
	if want := filepath.Join(root, "cursor-control"); p.Path != want {
		t.Errorf("Path = %q, want %q", p.Path, want)
	}
	if want := filepath.Join(root, "cursor-control", "cursor-control"); p.Executable != want {
		t.Errorf("Executable = %q, want %q", p.Executable, want)
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "good", Manifest{Name: "good", Executable: "good"})
	writeManifest(t, root, "nameless", Manifest{Executable: "x"})

	broken := filepath.Join(root, "broken")
	if err := os.MkdirAll(broken, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(broken, "plugin.json"), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := m.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Errorf("List() = %v, want only the good plugin", plugins)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := m.Discover(); err != nil {
		t.Errorf("Discover() on missing dir = %v, want nil", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_ListSorted(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeManifest(t, root, name, Manifest{Name: name, Executable: name})
	}

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, p := range m.List() {
		names = append(names, p.Manifest.Name)
	}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("List() order = %v, want %v", names, want)
		}
	}
}

func TestManager_GetAndRequire(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "cursor-control", Manifest{
		Name:       "cursor-control",
		Executable: "cursor-control",
		Actions:    []string{"move", "click-down", "click-up"},
	})

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}

	t.Run("get missing", func(t *testing.T) {
		_, err := m.Get("nope")
		if !errors.Is(err, ErrPluginNotFound) {
			t.Errorf("Get() error = %v, want ErrPluginNotFound", err)
		}
	})

	t.Run("require supported actions", func(t *testing.T) {
		p, err := m.Require("cursor-control", "move", "click-up")
		if err != nil {
			t.Fatalf("Require() error = %v", err)
		}
		if p.Manifest.Name != "cursor-control" {
			t.Errorf("Require() = %q", p.Manifest.Name)
		}
	})

	t.Run("require unsupported action", func(t *testing.T) {
		_, err := m.Require("cursor-control", "move", "scroll")
		if !errors.Is(err, ErrActionNotSupported) {
			t.Errorf("Require() error = %v, want ErrActionNotSupported", err)
		}
	})
}

func TestManager_PluginDir(t *testing.T) {
	m := NewManager("/opt/mudra/plugins")
	if m.PluginDir() != "/opt/mudra/plugins" {
		t.Errorf("PluginDir() = %q", m.PluginDir())
	}
}
