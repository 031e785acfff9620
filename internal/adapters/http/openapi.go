package httpadapter

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

//go:embed openapi.yaml
var openapiSpec []byte

// requestValidator checks request bodies against the component schemas of
// the embedded API document before they are decoded into Go types.
type requestValidator struct {
	doc *openapi3.T
}

func newRequestValidator() (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return &requestValidator{doc: doc}, nil
}

func (v *requestValidator) validate(schemaName string, body []byte) error {
	ref, ok := v.doc.Components.Schemas[schemaName]
	if !ok || ref.Value == nil {
		return fmt.Errorf("openapi schema %q not found", schemaName)
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", fmt.Errorf("invalid json"))
	}
	if err := ref.Value.VisitJSON(value); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate request", err)
	}
	return nil
}

// OpenAPISpec returns the embedded API document.
func OpenAPISpec() []byte {
	return openapiSpec
}
