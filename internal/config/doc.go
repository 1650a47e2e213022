// Package config provides user configuration management for escconf.
//
// This package manages a YAML-based configuration file that stores application
// preferences (log level, out-of-sync sentinels, edit server defaults), named
// settings profiles and the edit servers last seen on the network. The
// configuration follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/escconf/config.yaml or $HOME/.config/escconf/config.yaml
//   - macOS: $HOME/.config/escconf/config.yaml
//   - Windows: %LOCALAPPDATA%\escconf\config.yaml
//
// The --config flag replaces the location; see LoadRegistryFrom.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.SaveProfile("race", "AM32", "", map[string]int{
//	    "TIMING_ADVANCE": 2,
//	    "STARTUP_POWER":  100,
//	})
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
