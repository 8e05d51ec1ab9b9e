package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	fmt.Println("Mudra - Hand Tracking Pointer")

	cfg := config.Load()
	preset := parseFlags(cfg, os.Args[1:])
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			log.Fatalf("Invalid flags: %v", err)
		}
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = findWebDir(cfg.DataDir)
	}
	if cfg.StaticDir != "" {
		log.Printf("Serving static files from: %s", cfg.StaticDir)
	}

	a, err := app.New(cfg, app.Options{})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ui func()
	if cfg.Tray {
		ui = func() { runTray(ctx, stop, a) }
	}

	if err := runUntilDone(stop, func() error { return a.Run(ctx) }, ui); err != nil {
		a.Close()
		log.Fatalf("Mudra stopped: %v", err)
	}
	log.Println("Mudra stopped")
}

// runUntilDone runs fn in the background and blocks in ui, if any, until fn
// returns. fn returning on its own calls stop so ui can exit.
func runUntilDone(stop context.CancelFunc, fn func() error, ui func()) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
		stop()
	}()

	if ui != nil {
		ui()
	}
	return <-done
}

// parseFlags lets command line flags override the environment. It returns
// the requested smoothing preset, if any.
func parseFlags(cfg *config.Config, args []string) string {
	fs := flag.NewFlagSet("mudra", flag.ExitOnError)
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the profile database")
	fs.StringVar(&cfg.PluginDir, "plugin-dir", cfg.PluginDir, "directory scanned for plugins")
	fs.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "settings UI directory")
	fs.StringVar(&cfg.CursorPlugin, "cursor-plugin", cfg.CursorPlugin, "plugin that drives the cursor")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "profile to activate")
	fs.BoolVar(&cfg.Tray, "tray", cfg.Tray, "show the system tray menu")
	fs.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device index")
	fs.BoolVar(&cfg.Mirror, "mirror", cfg.Mirror, "mirror the camera image horizontally")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "log cursor commands instead of executing them")
	fs.StringVar(&cfg.ReplayPath, "replay", cfg.ReplayPath, "replay frames from a JSON lines file")
	fs.StringVar(&cfg.RecordPath, "record", cfg.RecordPath, "append frames to a JSON lines file")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "pointing mode: palm, finger or scroll")
	fs.BoolVar(&cfg.Smooth, "smooth", cfg.Smooth, "smooth the cursor position")
	preset := fs.String("preset", "", "smoothing preset: "+strings.Join(config.Presets(), ", "))
	fs.Parse(args)
	return *preset
}

// runTray blocks on the tray until ctx is done or the user quits.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App) {
	session := a.Session()
	t := tray.New()
	t.SetEnabled(session.IsEnabled())
	t.SetMode(session.Mode())

	t.OnToggle(session.SetEnabled)
	t.OnMode(func(m control.Mode) {
		if err := session.SetMode(m); err != nil {
			log.Printf("Failed to switch mode: %v", err)
		}
	})
	t.OnSettings(func() {
		if err := openBrowser(settingsURL(a.Config().HTTPAddr)); err != nil {
			log.Printf("Failed to open settings: %v", err)
		}
	})
	t.OnQuit(stop)

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Quit()
				return
			case <-ticker.C:
				t.SetEnabled(session.IsEnabled())
				t.SetMode(session.Mode())
				if cmd, ok := a.Events().Last(); ok {
					t.SetLastCommand(cmd.String())
				}
			}
		}
	}()

	t.Run()
}

func settingsURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func openBrowser(url string) error {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	return exec.Command(name, url).Start()
}

// findWebDir looks for the settings UI next to the working directory and
// then in the data directory.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
