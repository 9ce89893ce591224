package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
)

type baseURLValidator struct{}

// Description returns a plain text description of the validator's behavior, suitable for a practitioner to understand its impact.
func (v baseURLValidator) Description(ctx context.Context) string {
	return "Base URL must be an absolute http or https URL, such as http://localhost:8090."
}

// MarkdownDescription returns a markdown formatted description of the validator's behavior, suitable for a practitioner to understand its impact.
func (v baseURLValidator) MarkdownDescription(ctx context.Context) string {
	return "Base URL must be an absolute `http` or `https` URL, such as `http://localhost:8090`."
}

// ValidateString Validate runs the main validation logic of the validator, reading configuration data out of `req` and updating `resp` with diagnostics.
func (v baseURLValidator) ValidateString(ctx context.Context, req validator.StringRequest, resp *validator.StringResponse) {
	// If the value is unknown or null, there is nothing to validate.
	if req.ConfigValue.IsUnknown() || req.ConfigValue.IsNull() {
		return
	}

	if !isBaseURL(req.ConfigValue.ValueString()) {
		resp.Diagnostics.AddAttributeError(
			req.Path,
			"Incorrect base URL format",
			v.Description(ctx),
		)
	}
}

func isBaseURL(value string) bool {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return false
	}
	return govalidator.IsRequestURL(value)
}

type jsonObjectValidator struct{}

func (v jsonObjectValidator) Description(ctx context.Context) string {
	return "Value must be a JSON object."
}

func (v jsonObjectValidator) MarkdownDescription(ctx context.Context) string {
	return "Value must be a JSON object, e.g. `jsonencode({})`."
}

func (v jsonObjectValidator) ValidateString(ctx context.Context, req validator.StringRequest, resp *validator.StringResponse) {
	if req.ConfigValue.IsUnknown() || req.ConfigValue.IsNull() {
		return
	}

	if _, err := decodeJSONObject(req.ConfigValue.ValueString()); err != nil {
		resp.Diagnostics.AddAttributeError(
			req.Path,
			"Incorrect JSON object",
			err.Error(),
		)
	}
}

func decodeJSONObject(value string) (map[string]interface{}, error) {
	object := map[string]interface{}{}
	if value == "" {
		return object, nil
	}
	if err := json.Unmarshal([]byte(value), &object); err != nil {
		return nil, err
	}
	if object == nil {
		object = map[string]interface{}{}
	}
	return object, nil
}
