package validation

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/artpar/larkin/core/schema"
)

func fooRoute() *schema.Route {
	return &schema.Route{
		Path:        "/foo",
		Description: "An example route",
		Methods:     []string{"GET"},
		Parameters: map[string]schema.Parameter{
			"thing":  {Type: schema.TypeTextList, Description: "a thing"},
			"format": {Type: schema.TypeText, Description: "desired output format", Values: []any{"json", "csv"}},
			"limit":  {Type: schema.TypeInteger, Description: "max results"},
			"ids":    {Type: schema.TypeIntegerList, Description: "ids", Values: []any{1, 2, 3}},
			"active": {Type: schema.TypeBoolean, Description: "only active"},
		},
		RequiresOneOf: []string{"thing"},
		Fields: map[string]schema.Field{
			"message": {Type: schema.TypeText, Description: "A message"},
		},
		Examples: []string{"/api/foo?thing=bar,baz"},
	}
}

func TestValidateSuccess(t *testing.T) {
	out, err := Validate(fooRoute(), []Param{
		{Name: "thing", Raw: "bar,baz"},
		{Name: "limit", Raw: "10"},
		{Name: "active", Raw: "true"},
		{Name: "ids", Raw: "1,3"},
		{Name: "format", Raw: "csv"},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if out.Describe {
		t.Fatal("Describe should be false")
	}

	want := schema.Params{
		"thing":  []any{"bar", "baz"},
		"limit":  int64(10),
		"active": true,
		"ids":    []any{int64(1), int64(3)},
		"format": "csv",
	}
	if !reflect.DeepEqual(out.Params, want) {
		t.Errorf("Params = %#v, want %#v", out.Params, want)
	}
}

func TestValidateDescribe(t *testing.T) {
	route := fooRoute()
	out, err := Validate(route, nil)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !out.Describe || out.Route != route {
		t.Errorf("outcome = %+v, want describe of route", out)
	}
}

func TestValidateRouteNotFound(t *testing.T) {
	_, err := Validate(nil, []Param{{Name: "thing", Raw: "x"}})
	if !errors.Is(err, ErrRouteNotFound) {
		t.Fatalf("err = %v, want ErrRouteNotFound", err)
	}
	if StatusOf(err) != http.StatusNotFound {
		t.Errorf("status = %d, want 404", StatusOf(err))
	}
	if err.Error() != "Route not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		params  []Param
		kind    error
		message string
		mention []string
	}{
		{
			name:    "unknown parameter",
			params:  []Param{{Name: "bogus", Raw: "1"}},
			kind:    ErrUnknownParameter,
			message: "The parameter 'bogus' is not recognized for this route",
		},
		{
			name:    "comma in scalar",
			params:  []Param{{Name: "limit", Raw: "1,2"}},
			kind:    ErrNotAList,
			message: "The parameter 'limit' does not accept comma-delimited lists of values",
		},
		{
			name:   "scalar type mismatch",
			params: []Param{{Name: "limit", Raw: "abc"}},
			kind:   ErrTypeMismatch,
			message: "The value 'abc' provided to the parameter 'limit' is invalid. " +
				"The parameter 'limit' expects values to be a number but 'abc' is a string",
		},
		{
			name:    "text given a number",
			params:  []Param{{Name: "format", Raw: "42"}},
			kind:    ErrTypeMismatch,
			mention: []string{"'42' is a number"},
		},
		{
			name:    "one bad list element",
			params:  []Param{{Name: "ids", Raw: "1,x,3"}},
			kind:    ErrTypeMismatch,
			mention: []string{"'x'"},
		},
		{
			name:    "boolean mismatch",
			params:  []Param{{Name: "active", Raw: "yes"}},
			kind:    ErrTypeMismatch,
			mention: []string{"expects values to be a boolean"},
		},
		{
			name:    "enum value",
			params:  []Param{{Name: "format", Raw: "xml"}},
			kind:    ErrInvalidEnumValue,
			message: "The parameter 'format' accepts the following values - json, csv. The value 'xml' is invalid and not recognized.",
		},
		{
			name:    "every bad enum element is named",
			params:  []Param{{Name: "ids", Raw: "1,7,9"}},
			kind:    ErrInvalidEnumValue,
			mention: []string{"'7'", "'9'", "1, 2, 3"},
		},
		{
			name:    "missing one of",
			params:  []Param{{Name: "format", Raw: "json"}},
			kind:    ErrMissingOneOf,
			mention: []string{"'thing'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(fooRoute(), tt.params)
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if StatusOf(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", StatusOf(err))
			}
			if tt.message != "" && err.Error() != tt.message {
				t.Errorf("message = %q\nwant      %q", err.Error(), tt.message)
			}
			for _, m := range tt.mention {
				if !strings.Contains(err.Error(), m) {
					t.Errorf("message %q should mention %q", err.Error(), m)
				}
			}
		})
	}
}

func TestValidateStopsAtFirstFailure(t *testing.T) {
	_, err := Validate(fooRoute(), []Param{
		{Name: "limit", Raw: "abc"},
		{Name: "bogus", Raw: "1"},
	})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want the first parameter's failure", err)
	}
}

func TestValidateRequired(t *testing.T) {
	route := fooRoute()
	route.RequiresOneOf = nil
	route.RequiredParameters = []string{"limit", "active"}

	_, err := Validate(route, []Param{{Name: "limit", Raw: "5"}})
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("err = %v, want ErrMissingRequired", err)
	}
	if !strings.Contains(err.Error(), "'active'") || strings.Contains(err.Error(), "'limit'") {
		t.Errorf("message %q should name only the missing parameter", err.Error())
	}

	if _, err := Validate(route, []Param{{Name: "limit", Raw: "5"}, {Name: "active", Raw: "false"}}); err != nil {
		t.Errorf("Validate with all required: %v", err)
	}
}

func TestStatusOfPlainError(t *testing.T) {
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("StatusOf = %d, want 500", got)
	}
	if got := Reason(Internal()); got != "internal" {
		t.Errorf("Reason = %q", got)
	}
	if got := Reason(NotFound()); got != "route_not_found" {
		t.Errorf("Reason = %q", got)
	}
}
