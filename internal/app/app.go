// Package app wires the mudra components together: configuration, profile
// store, control session, cursor backend, frame source and HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

// Options replace parts of the wiring. Zero values build the real thing
// from the configuration.
type Options struct {
	// Source replaces the camera or replay source.
	Source sensor.Source
	// Cursor replaces the cursor plugin.
	Cursor cursor.Cursor
}

// App owns every long-lived component of a running mudra.
type App struct {
	cfg *config.Config

	store   *store.Store
	session *control.Session
	events  *cursor.Broadcaster
	preview *capture.Preview
	source  sensor.Source
	server  *server.Server
	record  *sensor.FrameWriter

	closers []io.Closer
	once    sync.Once
}

// New builds an App from cfg. The camera, plugin and listening socket are
// not touched until Run.
func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{cfg: cfg}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = st
	a.closers = append(a.closers, st)

	if err := a.loadProfile(); err != nil {
		a.Close()
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		a.Close()
		return nil, err
	}

	c := opts.Cursor
	if c == nil {
		if c, err = a.openCursor(); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.events = cursor.NewBroadcaster(c)
	a.session = control.NewSession(cfg.Control(), a.events)

	a.source = opts.Source
	if a.source == nil {
		if a.source, err = a.openSource(); err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.RecordPath != "" {
		f, err := os.OpenFile(cfg.RecordPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open recording: %w", err)
		}
		a.record = sensor.NewFrameWriter(f)
		a.closers = append(a.closers, f)
		log.Printf("Recording frames to %s", cfg.RecordPath)
	}

	a.server = server.New(server.Config{
		StaticDir: cfg.StaticDir,
		Store:     a.store,
		Session:   a.session,
		Events:    a.events,
		Preview:   a.preview,
	})
	return a, nil
}

// loadProfile applies the profile named in the configuration, or else the
// stored active profile.
func (a *App) loadProfile() error {
	var (
		p   *store.Profile
		err error
	)
	if a.cfg.Profile != "" {
		p, err = a.store.Profiles().GetByName(a.cfg.Profile)
		if err != nil {
			return fmt.Errorf("load profile %q: %w", a.cfg.Profile, err)
		}
		if err := a.store.Settings().SetActiveProfile(p.ID); err != nil {
			return fmt.Errorf("activate profile %q: %w", p.Name, err)
		}
	} else {
		p, err = a.store.Settings().ActiveProfile()
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load active profile: %w", err)
		}
	}

	a.cfg.ApplyProfile(p)
	log.Printf("Using profile %q", p.Name)
	return nil
}

func (a *App) openCursor() (cursor.Cursor, error) {
	if a.cfg.DryRun {
		log.Println("Dry run: cursor commands are only logged")
		return newLogCursor(), nil
	}

	mgr := plugin.NewManager(a.cfg.PluginDir)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	p, err := mgr.Require(a.cfg.CursorPlugin, cursor.Actions...)
	if err != nil {
		return nil, fmt.Errorf("cursor plugin: %w", err)
	}

	sender := plugin.Open(p, plugin.NewExecutor(plugin.DefaultTimeout))
	if closer, ok := sender.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}
	log.Printf("Using cursor plugin %s %s", p.Manifest.Name, p.Manifest.Version)
	return cursor.NewPluginCursor(sender), nil
}

func (a *App) openSource() (sensor.Source, error) {
	if a.cfg.ReplayPath != "" {
		src, err := sensor.LoadReplayFile(a.cfg.ReplayPath)
		if err != nil {
			return nil, err
		}
		src.Paced = true
		log.Printf("Replaying %d frames from %s", src.Len(), a.cfg.ReplayPath)
		return src, nil
	}

	var det detector.Detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		det = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		det = detector.NewMockDetector()
	}
	a.closers = append(a.closers, det)

	camCfg := capture.DefaultCameraConfig()
	camCfg.DeviceID = a.cfg.CameraID
	camCfg.FPS = a.cfg.ActiveFPS

	srcCfg := sensor.DefaultCameraSourceConfig()
	srcCfg.MotionThreshold = a.cfg.MotionThreshold
	srcCfg.Gate.IdleFPS = a.cfg.IdleFPS
	srcCfg.Gate.ActiveFPS = a.cfg.ActiveFPS
	srcCfg.Converter.Mirror = a.cfg.Mirror

	a.preview = capture.NewPreview()
	src := sensor.NewCameraSource(capture.NewCamera(camCfg), det, srcCfg)
	src.SetPreview(a.preview)
	return src, nil
}

// Run serves HTTP and streams frames into the session until ctx is cancelled
// or the source stops. The session always sees its teardown hooks, so a held
// button is released before Run returns.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var listener sensor.Listener = a.session
	if a.record != nil {
		listener = sensor.Tee{a.session, a.record}
	}

	var wg sync.WaitGroup
	var srvErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Starting server on %s", a.cfg.HTTPAddr)
		if err := a.server.Run(ctx, a.cfg.HTTPAddr); err != nil {
			srvErr = fmt.Errorf("server: %w", err)
			cancel()
		}
	}()

	srcErr := a.source.Run(ctx, listener)
	if srcErr != nil {
		srcErr = fmt.Errorf("frame source: %w", srcErr)
	} else if ctx.Err() == nil {
		log.Println("Frame source finished")
	}
	cancel()
	wg.Wait()

	return errors.Join(srcErr, srvErr)
}

// Close releases the store, plugin process, detector and recording.
func (a *App) Close() error {
	var errs []error
	a.once.Do(func() {
		if a.record != nil {
			if err := a.record.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// Handler returns the HTTP API without listening on the configured address.
func (a *App) Handler() http.Handler { return a.server }

func (a *App) Session() *control.Session { return a.session }

func (a *App) Events() *cursor.Broadcaster { return a.events }

func (a *App) Store() *store.Store { return a.store }

func (a *App) Config() *config.Config { return a.cfg }
