// Package validation checks an incoming request's parameters against a
// registered route declaration and coerces them for the handler.
package validation

import (
	"fmt"
	"strings"

	"github.com/artpar/larkin/core/coerce"
	"github.com/artpar/larkin/core/schema"
)

// Param is one raw request parameter. Query parameters come first in the
// order they appeared, followed by path parameters.
type Param struct {
	Name string
	Raw  string
}

// Outcome is a successful validation.
type Outcome struct {
	// Describe is set when the request carried no parameters. The caller
	// should answer with the route description instead of running the
	// handler.
	Describe bool

	Route *schema.Route

	// Params holds the coerced values. It is nil when Describe is set.
	Params schema.Params
}

// Validate validates params against route. A nil route fails with
// RouteNotFound. Parameters are checked in input order and the first
// failure is returned as a *RequestError.
func Validate(route *schema.Route, params []Param) (*Outcome, error) {
	if route == nil {
		return nil, NotFound()
	}

	if len(params) == 0 {
		return &Outcome{Describe: true, Route: route}, nil
	}

	values := make(schema.Params, len(params))
	for _, p := range params {
		spec, ok := route.Parameters[p.Name]
		if !ok {
			return nil, badRequest(ErrUnknownParameter,
				fmt.Sprintf("The parameter '%s' is not recognized for this route", p.Name))
		}

		if err := checkType(p, spec.Type); err != nil {
			return nil, err
		}

		v := coerce.ForType(p.Raw, spec.Type)

		if spec.HasValues() {
			if err := checkValues(p, spec, v); err != nil {
				return nil, err
			}
		}

		values[p.Name] = v
	}

	if missing := missingRequired(route.RequiredParameters, values); len(missing) > 0 {
		return nil, badRequest(ErrMissingRequired,
			fmt.Sprintf("The following parameters are required for this route - %s", quoteJoin(missing)))
	}

	if len(route.RequiresOneOf) > 0 && !anyPresent(route.RequiresOneOf, values) {
		return nil, badRequest(ErrMissingOneOf,
			fmt.Sprintf("At least one of the following parameters is required for this route - %s", quoteJoin(route.RequiresOneOf)))
	}

	return &Outcome{Route: route, Params: values}, nil
}

func checkType(p Param, t schema.TypeName) error {
	if !t.IsList() {
		if strings.Contains(p.Raw, ",") {
			return badRequest(ErrNotAList,
				fmt.Sprintf("The parameter '%s' does not accept comma-delimited lists of values", p.Name))
		}
		return checkKind(p.Name, p.Raw, t)
	}

	for _, elem := range coerce.Split(p.Raw) {
		if err := checkKind(p.Name, elem, t); err != nil {
			return err
		}
	}
	return nil
}

func checkKind(name, raw string, t schema.TypeName) error {
	want := t.Kind()
	got := coerce.KindOf(coerce.Value(raw))
	if got == want {
		return nil
	}
	return badRequest(ErrTypeMismatch, fmt.Sprintf(
		"The value '%s' provided to the parameter '%s' is invalid. The parameter '%s' expects values to be a %s but '%s' is a %s",
		raw, name, name, want, raw, got))
}

func checkValues(p Param, spec schema.Parameter, v any) error {
	var rejected []string

	if list, ok := v.([]any); ok {
		raws := coerce.Split(p.Raw)
		for i, e := range list {
			if !coerce.Contains(spec.Values, e) {
				rejected = append(rejected, raws[i])
			}
		}
	} else if !coerce.Contains(spec.Values, v) {
		rejected = append(rejected, p.Raw)
	}

	if len(rejected) == 0 {
		return nil
	}

	allowed := make([]string, len(spec.Values))
	for i, a := range spec.Values {
		allowed[i] = fmt.Sprint(a)
	}

	var tail string
	if len(rejected) == 1 {
		tail = fmt.Sprintf("The value '%s' is invalid and not recognized.", rejected[0])
	} else {
		tail = fmt.Sprintf("The values %s are invalid and not recognized.", quoteJoin(rejected))
	}

	return badRequest(ErrInvalidEnumValue, fmt.Sprintf("The parameter '%s' accepts the following values - %s. %s",
		p.Name, strings.Join(allowed, ", "), tail))
}

func missingRequired(required []string, values schema.Params) []string {
	var missing []string
	for _, name := range required {
		if !values.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func anyPresent(names []string, values schema.Params) bool {
	for _, name := range names {
		if values.Has(name) {
			return true
		}
	}
	return false
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
