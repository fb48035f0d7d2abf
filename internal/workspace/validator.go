package workspace

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/package.v1.schema.json
var schemaFS embed.FS

const schemaPath = "schemas/package.v1.schema.json"

var (
	// namePattern matches valid package directory names.
	namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*([-.][a-z0-9]+)*$`)
)

// Problem is one validation finding for a package.
type Problem struct {
	Package string
	Field   string
	Message string
}

func (p Problem) String() string {
	if p.Field != "" {
		return fmt.Sprintf("%s: %s: %s", p.Package, p.Field, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Package, p.Message)
}

// Validator validates package manifests.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the embedded manifest schema.
func NewValidator() (*Validator, error) {
	schemaBytes, err := schemaFS.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load JSON schema: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to compile JSON schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks every package of the workspace.
func (v *Validator) Validate(ws *Workspace) ([]Problem, error) {
	var problems []Problem
	for _, p := range ws.Packages {
		found, err := v.ValidatePackage(p)
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", p.Name, err)
		}
		problems = append(problems, found...)
	}
	return problems, nil
}

// ValidatePackage checks the directory name and the manifest of one package.
func (v *Validator) ValidatePackage(p Package) ([]Problem, error) {
	var problems []Problem
	if err := ValidateName(p.Name); err != nil {
		problems = append(problems, Problem{Package: p.Name, Message: err.Error()})
	}

	data, err := os.ReadFile(filepath.Join(p.Root, ManifestFileName))
	if err != nil {
		return nil, err
	}
	found, err := v.ValidateManifest(p.Name, data)
	if err != nil {
		return nil, err
	}
	return append(problems, found...), nil
}

// ValidateManifest checks raw package.json content against the schema.
func (v *Validator) ValidateManifest(name string, data []byte) ([]Problem, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	problems := make([]Problem, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, Problem{
			Package: name,
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return problems, nil
}

// ValidateName validates a package directory name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase letters, numbers, dots and hyphens, starting with a letter")
	}
	return nil
}
