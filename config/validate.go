package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/semanticmemory/internal/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their yaml key
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. Field rules live in the
// struct tags; rules spanning several fields are checked here. It returns a
// *ValidationError listing every problem found.
func Validate(cfg *Config) error {
	ve := &ValidationError{}

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			ve.Add("%s", describe(fe))
		}
	}

	validateMemory(cfg, ve)
	validateEmbedding(cfg, ve)
	validateGrounding(cfg, ve)
	validateLogger(cfg, ve)

	if ve.HasErrors() {
		return ve
	}
	return nil
}

func describe(fe validator.FieldError) string {
	// drop the root struct name
	_, field, _ := strings.Cut(fe.Namespace(), ".")

	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s %q is not one of %s", field, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required", "required_if":
		return field + " must not be empty"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}

func validateMemory(cfg *Config, ve *ValidationError) {
	if cfg.Memory.Backend == BackendSQLite && cfg.Memory.DSN == "" {
		ve.Add("memory.dsn is required for the sqlite backend")
	}
}

func validateEmbedding(cfg *Config, ve *ValidationError) {
	if cfg.Memory.Backend == BackendNull {
		return
	}
	if cfg.Embedding.Provider == ProviderHash && cfg.Embedding.Dimensions == 0 {
		ve.Add("embedding.dimensions must be > 0 for the hash provider")
	}
}

func validateGrounding(cfg *Config, ve *ValidationError) {
	if _, err := util.ParseTemplate(cfg.Grounding.Instructions); err != nil {
		ve.Add("grounding.instructions: %v", err)
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level %q is not one of debug, info, warn, error", cfg.Logger.Level)
	}
}
