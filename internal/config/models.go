package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/muurk/escconf/internal/numfield"
)

// Registry represents the entire user configuration file.
// It stores application preferences, named settings profiles and the edit
// servers seen on the network.
type Registry struct {
	Version     int                     `yaml:"version"`
	Preferences *Preferences            `yaml:"preferences,omitempty"`
	Profiles    map[string]*Profile     `yaml:"profiles,omitempty"` // Keyed by profile name
	Servers     map[string]*KnownServer `yaml:"servers,omitempty"`  // Keyed by mDNS instance name

	// path is where Save writes; empty means the default config path
	path string
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	LogLevel        string `yaml:"log_level,omitempty"`       // Default log level when --log-level is not given
	NumberSentinel  string `yaml:"number_sentinel,omitempty"` // Out-of-sync display for number fields: zero, min or a number
	SliderSentinel  string `yaml:"slider_sentinel,omitempty"` // Out-of-sync display for sliders: zero, min or a number
	ServerPort      int    `yaml:"server_port"`               // Default port for 'escconf serve'
	Advertise       bool   `yaml:"advertise"`                 // Announce the edit server over mDNS
	DiscoverTimeout int    `yaml:"discover_timeout"`          // mDNS scan timeout in seconds
	LastFile        string `yaml:"last_file,omitempty"`       // Settings file opened most recently
}

// Profile is a named set of common setting values for one layout.
// Values are canonical.
type Profile struct {
	Layout      string         `yaml:"layout"`
	Description string         `yaml:"description,omitempty"`
	Settings    map[string]int `yaml:"settings"`
	SavedAt     time.Time      `yaml:"saved_at"`
}

// KnownServer records an edit server found by 'escconf scan'.
type KnownServer struct {
	Host     string    `yaml:"host"`
	LastIP   string    `yaml:"last_ip,omitempty"`
	Port     int       `yaml:"port"`
	Layout   string    `yaml:"layout,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// DefaultPreferences returns the preferences used when none are configured.
func DefaultPreferences() *Preferences {
	return &Preferences{
		ServerPort:      8484,
		Advertise:       true,
		DiscoverTimeout: 5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Preferences: DefaultPreferences(),
		Profiles:    make(map[string]*Profile),
		Servers:     make(map[string]*KnownServer),
	}
}

// Path returns the file the registry is saved to, or "" for the default location.
func (r *Registry) Path() string {
	return r.path
}

// Sentinels parses the configured out-of-sync sentinels.
func (p *Preferences) Sentinels() (number, slider numfield.Sentinel, err error) {
	number, err = numfield.ParseSentinel(p.NumberSentinel)
	if err != nil {
		return number, slider, fmt.Errorf("number_sentinel: %w", err)
	}
	slider, err = numfield.ParseSentinel(p.SliderSentinel)
	if err != nil {
		return number, slider, fmt.Errorf("slider_sentinel: %w", err)
	}
	return number, slider, nil
}

// Validate checks the preferences and returns every problem found.
func (p *Preferences) Validate() []error {
	var errs []error

	if _, _, err := p.Sentinels(); err != nil {
		errs = append(errs, err)
	}
	if p.ServerPort < 0 || p.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("server_port: %d out of range (must be 0-65535)", p.ServerPort))
	}
	if p.DiscoverTimeout < 0 {
		errs = append(errs, fmt.Errorf("discover_timeout: must not be negative"))
	}
	switch strings.ToLower(p.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", p.LogLevel))
	}
	return errs
}

// SaveProfile stores a copy of settings under name, replacing any existing profile.
func (r *Registry) SaveProfile(name, layout, description string, settings map[string]int) *Profile {
	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}

	copied := make(map[string]int, len(settings))
	for k, v := range settings {
		copied[k] = v
	}

	profile := &Profile{
		Layout:      layout,
		Description: description,
		Settings:    copied,
		SavedAt:     time.Now(),
	}
	r.Profiles[name] = profile
	return profile
}

// GetProfile retrieves a profile by name.
func (r *Registry) GetProfile(name string) (*Profile, error) {
	profile, ok := r.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return profile, nil
}

// DeleteProfile removes a profile.
func (r *Registry) DeleteProfile(name string) error {
	if _, ok := r.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(r.Profiles, name)
	return nil
}

// ProfileNames returns the profile names, sorted.
func (r *Registry) ProfileNames() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateServerLastSeen records an edit server seen on the network.
func (r *Registry) UpdateServerLastSeen(instance, host, ip string, port int, layout string) {
	if r.Servers == nil {
		r.Servers = make(map[string]*KnownServer)
	}
	r.Servers[instance] = &KnownServer{
		Host:     host,
		LastIP:   ip,
		Port:     port,
		Layout:   layout,
		LastSeen: time.Now(),
	}
}
