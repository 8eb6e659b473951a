package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://rimebridge.local/config.schema.json"

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func configSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("add config schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.As reach the individual *ValidationError values.
func (e ValidationErrors) Unwrap() []error {
	out := make([]error, len(e))
	for i, err := range e {
		out[i] = err
	}
	return out
}

// ValidateConfig checks c against the embedded JSON Schema and then
// performs the checks a schema cannot express.
func ValidateConfig(c *Config) error {
	errs := validateSchema(c)
	if len(errs) > 0 {
		return errs
	}
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateHistory(&c.History)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateSchema(c *Config) ValidationErrors {
	schema, err := configSchema()
	if err != nil {
		return ValidationErrors{{Field: "schema", Message: err.Error()}}
	}

	data, err := json.Marshal(c)
	if err != nil {
		return ValidationErrors{{Field: "config", Message: err.Error()}}
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return ValidationErrors{{Field: "config", Message: err.Error()}}
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return ValidationErrors{{Field: "config", Message: err.Error()}}
	}

	var errs ValidationErrors
	for _, be := range ve.BasicOutput().Errors {
		// The first entries describe the enclosing objects; keep leaf causes.
		if be.InstanceLocation == "" || be.Error == "" || strings.HasPrefix(be.Error, "doesn't validate with") {
			continue
		}
		errs = append(errs, &ValidationError{Field: fieldName(be.InstanceLocation), Message: be.Error})
	}
	if len(errs) == 0 {
		errs = append(errs, &ValidationError{Field: "config", Message: ve.Message})
	}
	return errs
}

// fieldName turns a JSON pointer like /logging/level into logging.level.
func fieldName(pointer string) string {
	return strings.ReplaceAll(strings.TrimPrefix(pointer, "/"), "/", ".")
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	if (l.Output == "file" || l.Output == "both") && l.FilePath == "" {
		errs = append(errs, &ValidationError{
			Field:   "logging.file_path",
			Message: fmt.Sprintf("file path is required when output is '%s'", l.Output),
		})
	}
	return errs
}

func validateHistory(h *HistoryConfig) ValidationErrors {
	var errs ValidationErrors
	if h.Enabled && h.Path == "" {
		errs = append(errs, &ValidationError{
			Field:   "history.path",
			Message: "path is required when history is enabled",
		})
	}
	return errs
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	var errs ValidationErrors
	if !m.Enabled {
		return errs
	}
	if _, _, err := net.SplitHostPort(m.Listen); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "metrics.listen",
			Message: fmt.Sprintf("invalid listen address %q: %v", m.Listen, err),
		})
	}
	return errs
}
