package gateway

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// ValidationMode controls response schema validation.
type ValidationMode string

const (
	// ValidationOff skips validation.
	ValidationOff ValidationMode = "off"
	// ValidationWarn logs violations and returns the data anyway.
	ValidationWarn ValidationMode = "warn"
	// ValidationStrict turns violations into errors.
	ValidationStrict ValidationMode = "strict"
)

// ParseValidationMode parses off, warn or strict (case-insensitive).
func ParseValidationMode(s string) (ValidationMode, error) {
	switch m := ValidationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ValidationOff, ValidationWarn, ValidationStrict:
		return m, nil
	case "":
		return ValidationWarn, nil
	default:
		return "", fmt.Errorf("unknown validation mode %q (want off, warn or strict)", s)
	}
}

// schemaValidator checks successful responses against the embedded API document.
type schemaValidator struct {
	doc *openapi3.T
}

var (
	schemaOnce sync.Once
	schemaVal  *schemaValidator
	schemaErr  error
)

func loadSchema() (*schemaValidator, error) {
	schemaOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openAPIDocument)
		if err != nil {
			schemaErr = fmt.Errorf("failed to load API schema: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			schemaErr = fmt.Errorf("invalid API schema: %w", err)
			return
		}
		schemaVal = &schemaValidator{doc: doc}
	})
	return schemaVal, schemaErr
}

// validate checks body against the response schema declared for
// method+template and status. Undeclared combinations pass.
func (v *schemaValidator) validate(method, template string, status int, body []byte) error {
	if template == "" {
		return nil
	}

	item := v.doc.Paths.Find(template)
	if item == nil {
		return nil
	}
	op := item.GetOperation(method)
	if op == nil || op.Responses == nil {
		return nil
	}

	ref := op.Responses.Status(status)
	if ref == nil || ref.Value == nil {
		return nil
	}
	media := ref.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return err
	}
	return media.Schema.Value.VisitJSON(data)
}
