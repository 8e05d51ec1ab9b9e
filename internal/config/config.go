// Package config loads mudra settings from defaults, MUDRA_* environment
// variables and stored profiles.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/filter"
	"github.com/ayusman/mudra/internal/store"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const envPrefix = "MUDRA_"

type Config struct {
	HTTPAddr     string
	DataDir      string
	PluginDir    string
	StaticDir    string
	CursorPlugin string
	Profile      string // profile name activated at startup
	Tray         bool

	CameraID        int
	MotionThreshold float64
	Mirror          bool
	IdleFPS         int
	ActiveFPS       int

	DryRun     bool   // log commands instead of moving the cursor
	ReplayPath string // play recorded frames instead of the camera
	RecordPath string // append every frame to this file

	ScreenWidth          int
	ScreenHeight         int
	Smooth               bool
	SmoothPreset         string
	SmoothAggressiveness float64
	SmoothFalloff        float64
	SmoothRadius         float64
	DebounceThreshold    int
	FingerGraceFrames    int
	Mode                 string
}

var presets = map[string]func() filter.SmootherConfig{
	"default":    filter.DefaultSmootherConfig,
	"steady":     filter.SteadySmootherConfig,
	"responsive": filter.ResponsiveSmootherConfig,
}

// Presets returns the smoothing preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := ".mudra"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mudra")
	}

	cc := control.DefaultConfig()
	return &Config{
		HTTPAddr:             ":8080",
		DataDir:              dataDir,
		PluginDir:            "plugins",
		CursorPlugin:         "cursor-control",
		Tray:                 true,
		CameraID:             0,
		MotionThreshold:      1.0,
		Mirror:               true,
		IdleFPS:              5,
		ActiveFPS:            30,
		ScreenWidth:          int(cc.ScreenWidth),
		ScreenHeight:         int(cc.ScreenHeight),
		Smooth:               cc.Smooth,
		SmoothPreset:         "default",
		SmoothAggressiveness: cc.Smoother.Aggressiveness,
		SmoothFalloff:        cc.Smoother.Falloff,
		SmoothRadius:         cc.Smoother.Radius,
		DebounceThreshold:    cc.DebounceThreshold,
		FingerGraceFrames:    cc.FingerGraceFrames,
		Mode:                 string(cc.Mode),
	}
}

// Load returns the defaults overridden by the environment. A smoothing
// preset is applied before the individual smoothing variables.
func Load() *Config {
	c := Default()

	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.PluginDir = getEnv("PLUGIN_DIR", c.PluginDir)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	c.CursorPlugin = getEnv("CURSOR_PLUGIN", c.CursorPlugin)
	c.Profile = getEnv("PROFILE", c.Profile)
	c.Tray = getEnvBool("TRAY", c.Tray)

	c.CameraID = getEnvInt("CAMERA_ID", c.CameraID)
	c.MotionThreshold = getEnvFloat("MOTION_THRESHOLD", c.MotionThreshold)
	c.Mirror = getEnvBool("MIRROR", c.Mirror)
	c.IdleFPS = getEnvInt("IDLE_FPS", c.IdleFPS)
	c.ActiveFPS = getEnvInt("ACTIVE_FPS", c.ActiveFPS)

	c.DryRun = getEnvBool("DRY_RUN", c.DryRun)
	c.ReplayPath = getEnv("REPLAY", c.ReplayPath)
	c.RecordPath = getEnv("RECORD", c.RecordPath)

	c.ScreenWidth = getEnvInt("SCREEN_WIDTH", c.ScreenWidth)
	c.ScreenHeight = getEnvInt("SCREEN_HEIGHT", c.ScreenHeight)
	c.Smooth = getEnvBool("SMOOTH", c.Smooth)
	if preset := getEnv("SMOOTH_PRESET", ""); preset != "" {
		if err := c.ApplyPreset(preset); err != nil {
			log.Printf("Ignoring %sSMOOTH_PRESET: %v", envPrefix, err)
		}
	}
	c.SmoothAggressiveness = getEnvFloat("SMOOTH_AGGRESSIVENESS", c.SmoothAggressiveness)
	c.SmoothFalloff = getEnvFloat("SMOOTH_FALLOFF", c.SmoothFalloff)
	c.SmoothRadius = getEnvFloat("SMOOTH_RADIUS", c.SmoothRadius)
	c.DebounceThreshold = getEnvInt("DEBOUNCE_THRESHOLD", c.DebounceThreshold)
	c.FingerGraceFrames = getEnvInt("FINGER_GRACE_FRAMES", c.FingerGraceFrames)
	c.Mode = getEnv("MODE", c.Mode)

	return c
}

// ApplyPreset replaces the smoothing parameters with a named preset.
func (c *Config) ApplyPreset(name string) error {
	preset, ok := presets[name]
	if !ok {
		return fmt.Errorf("%w: unknown smoothing preset %q (want one of %s)",
			ErrInvalid, name, strings.Join(Presets(), ", "))
	}
	sc := preset()
	c.SmoothPreset = name
	c.SmoothAggressiveness = sc.Aggressiveness
	c.SmoothFalloff = sc.Falloff
	c.SmoothRadius = sc.Radius
	return nil
}

// DatabasePath is where the profile database lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// Control returns the session tuning described by c.
func (c *Config) Control() control.Config {
	cc := control.Config{
		ScreenWidth:  float64(c.ScreenWidth),
		ScreenHeight: float64(c.ScreenHeight),
		Smooth:       c.Smooth,
		Smoother: filter.SmootherConfig{
			Aggressiveness: c.SmoothAggressiveness,
			Falloff:        c.SmoothFalloff,
			Radius:         c.SmoothRadius,
		},
		DebounceThreshold: c.DebounceThreshold,
		FingerGraceFrames: c.FingerGraceFrames,
		Mode:              control.Mode(c.Mode),
	}
	if c.ActiveFPS > 0 {
		cc.Smoother.NominalInterval = time.Second / time.Duration(c.ActiveFPS)
	}
	return cc
}

// Validate reports every unusable value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is empty"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data directory is empty"))
	}
	if c.CursorPlugin == "" && !c.DryRun {
		errs = append(errs, errors.New("cursor plugin is empty"))
	}
	if c.MotionThreshold <= 0 {
		errs = append(errs, fmt.Errorf("motion threshold must be positive, got %v", c.MotionThreshold))
	}
	if c.IdleFPS <= 0 || c.ActiveFPS <= 0 {
		errs = append(errs, fmt.Errorf("frame rates must be positive, got idle %d active %d", c.IdleFPS, c.ActiveFPS))
	}
	if err := c.Control().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// ApplyProfile copies the tuning stored in p over c.
func (c *Config) ApplyProfile(p *store.Profile) {
	c.ScreenWidth = p.ScreenWidth
	c.ScreenHeight = p.ScreenHeight
	c.Smooth = p.Smooth
	c.SmoothAggressiveness = p.Aggressiveness
	c.SmoothFalloff = p.Falloff
	c.SmoothRadius = p.Radius
	c.DebounceThreshold = p.DebounceThreshold
	c.FingerGraceFrames = p.FingerGraceFrames
	c.Mode = p.Mode
}

// NewProfile captures session tuning as a named profile.
func NewProfile(name string, cc control.Config) *store.Profile {
	return &store.Profile{
		Name:              name,
		ScreenWidth:       int(cc.ScreenWidth),
		ScreenHeight:      int(cc.ScreenHeight),
		Smooth:            cc.Smooth,
		Aggressiveness:    cc.Smoother.Aggressiveness,
		Falloff:           cc.Smoother.Falloff,
		Radius:            cc.Smoother.Radius,
		DebounceThreshold: cc.DebounceThreshold,
		FingerGraceFrames: cc.FingerGraceFrames,
		Mode:              string(cc.Mode),
	}
}

// ProfileControl overlays the tuning of p on base. The frame interval of
// base is kept since profiles do not store it.
func ProfileControl(base control.Config, p *store.Profile) (control.Config, error) {
	cc := base
	cc.ScreenWidth = float64(p.ScreenWidth)
	cc.ScreenHeight = float64(p.ScreenHeight)
	cc.Smooth = p.Smooth
	cc.Smoother.Aggressiveness = p.Aggressiveness
	cc.Smoother.Falloff = p.Falloff
	cc.Smoother.Radius = p.Radius
	cc.DebounceThreshold = p.DebounceThreshold
	cc.FingerGraceFrames = p.FingerGraceFrames
	cc.Mode = control.Mode(p.Mode)
	if err := cc.Validate(); err != nil {
		return base, fmt.Errorf("%w: profile %q: %w", ErrInvalid, p.Name, err)
	}
	return cc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("Ignoring %s%s=%q: not an integer", envPrefix, key, v)
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("Ignoring %s%s=%q: not a number", envPrefix, key, v)
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("Ignoring %s%s=%q: not a boolean", envPrefix, key, v)
	}
	return def
}
