package config

import "time"

// Resolver handles configuration precedence: CLI flags > config file or env > built-in default.
type Resolver struct {
	config *Config
}

// NewResolver creates a new configuration resolver.
func NewResolver(config *Config) *Resolver {
	if config == nil {
		config = Default()
	}
	return &Resolver{config: config}
}

// ResolveTarget resolves the watch target.
func (r *Resolver) ResolveTarget(cli string) string {
	return first(cli, r.config.DefaultTarget, DefaultTarget)
}

// ResolveBackend resolves the compiler backend name.
func (r *Resolver) ResolveBackend(cli string) string {
	return first(cli, r.config.Compiler.Backend, "esbuild")
}

// ResolvePackagesDir resolves the packages directory.
func (r *Resolver) ResolvePackagesDir(cli string) string {
	return first(cli, r.config.PackagesDir, "packages")
}

// ResolveDebounce resolves the watch debounce window.
func (r *Resolver) ResolveDebounce(cli time.Duration) time.Duration {
	switch {
	case cli > 0:
		return cli
	case r.config.Watch.Debounce > 0:
		return r.config.Watch.Debounce
	default:
		return DefaultDebounce
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
