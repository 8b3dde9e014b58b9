package httpclient

import (
	"context"
	"encoding/json"
	stderr "errors"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/collectorkit/collectorkit/pkg/errors"
)

// validate is shared across RequestAndParse calls; the validator is safe for
// concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// RequestAndParse executes a request and decodes the response payload into T,
// then checks T's `validate` struct tags. All validation issues are collected
// into a single SCHEMA_VALIDATION error rather than stopping at the first.
func RequestAndParse[T any](ctx context.Context, c *Client, method, endpoint string, opts *Options) (T, error) {
	var out T

	resp, err := c.Request(ctx, method, endpoint, opts)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, errors.NewSchemaValidation(endpoint, []errors.Issue{
			{Field: "body", Description: "not valid JSON for the expected shape: " + err.Error()},
		})
	}

	if issues := validateStruct(out); len(issues) > 0 {
		var zero T
		return zero, errors.NewSchemaValidation(endpoint, issues)
	}
	return out, nil
}

// validateStruct runs tag validation when T is a struct (or pointer to one),
// collecting every field issue. Non-struct payloads carry no tags and pass.
func validateStruct(v any) []errors.Issue {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := validate.Struct(rv.Interface())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderr.As(err, &verrs) {
		return []errors.Issue{{Field: "body", Description: err.Error()}}
	}

	issues := make([]errors.Issue, 0, len(verrs))
	for _, fe := range verrs {
		desc := "failed validation rule " + fe.Tag()
		if fe.Param() != "" {
			desc += "=" + fe.Param()
		}
		issues = append(issues, errors.Issue{Field: fe.Namespace(), Description: desc})
	}
	return issues
}
