// Package format defines the closed set of output formats a package can be built into.
package format

import "strings"

// Kind is one output module shape.
type Kind int

const (
	CJS Kind = iota + 1
	ESM
	Browser
	BrowserModern
	Declarations
)

// Module is the module system an artifact is emitted in.
type Module string

const (
	ModuleCJS  Module = "cjs"
	ModuleES   Module = "es"
	ModuleIIFE Module = "iife"
)

// Spec holds the structural properties of a Kind.
type Spec struct {
	// Token is the name used on the command line and in package.json buildOptions.formats.
	Token string
	// Suffix is appended to the package basename to form the production artifact name.
	Suffix string
	Module Module
	// Split reports whether a development and a production variant exist.
	Split bool
	// ConsumesESM reports whether the input is the already-built esm artifact. The
	// matching esm variant must have been built first.
	ConsumesESM bool
	// Minified reports whether the production variant is minified.
	Minified bool
	Browser  bool
}

var specs = map[Kind]Spec{
	CJS: {
		Token:  "cjs",
		Suffix: ".cjs.js",
		Module: ModuleCJS,
		Split:  true,
	},
	ESM: {
		Token:  "esm",
		Suffix: ".esm.js",
		Module: ModuleES,
		Split:  true,
	},
	Browser: {
		Token:       "browser",
		Suffix:      ".js",
		Module:      ModuleIIFE,
		Split:       true,
		ConsumesESM: true,
		Minified:    true,
		Browser:     true,
	},
	BrowserModern: {
		Token:       "browserModern",
		Suffix:      ".modern.js",
		Module:      ModuleIIFE,
		Split:       true,
		ConsumesESM: true,
		Minified:    true,
		Browser:     true,
	},
	Declarations: {
		Token:  "declarations",
		Module: ModuleES,
	},
}

// Spec returns the structural properties of k.
func (k Kind) Spec() Spec {
	return specs[k]
}

func (k Kind) String() string {
	if s, ok := specs[k]; ok {
		return s.Token
	}
	return "unknown"
}

// IsBrowser reports whether k is one of the browser bundle kinds.
func (k Kind) IsBrowser() bool {
	return specs[k].Browser
}

// MarshalText renders the kind as its token.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Defaults is the format list used when a package declares none.
func Defaults() []Kind {
	return []Kind{CJS, ESM, Browser, BrowserModern}
}

// Parse converts a user-facing token into a Kind. The declarations kind is
// internal and cannot be requested by token.
func Parse(token string) (Kind, error) {
	for _, k := range Defaults() {
		if specs[k].Token == token {
			return k, nil
		}
	}
	return 0, &InvalidFormatError{Token: token}
}

// ParseList splits a format list such as "esm/browser" or "cjs,esm" into tokens.
func ParseList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ','
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
