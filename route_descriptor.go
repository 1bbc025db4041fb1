package aquilify

import "encoding/json"

// RouteDescriptor describes a public route registered with one of the
// Public bind methods. Route descriptors are used by API gateway frameworks
// for service discovery and routing. Access them via Router.RouteDescriptors().
type RouteDescriptor struct {
	Method  Method
	Pattern *Pattern
}

// MarshalJSON returns the JSON representation of the route descriptor.
func (r *RouteDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Method  string
		Pattern string
	}{
		Method:  string(r.Method),
		Pattern: r.Pattern.String(),
	})
}

// UnmarshalJSON parses the JSON representation of the route descriptor.
func (r *RouteDescriptor) UnmarshalJSON(data []byte) error {
	fromJSONStruct := struct {
		Method  string
		Pattern string
	}{}
	if err := json.Unmarshal(data, &fromJSONStruct); err != nil {
		return err
	}

	pattern, err := NewPattern(fromJSONStruct.Pattern)
	if err != nil {
		return err
	}

	r.Method = Method(fromJSONStruct.Method)
	r.Pattern = pattern

	return nil
}
