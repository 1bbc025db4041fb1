package aquilify

import (
	"errors"

	"github.com/grafana/regexp"
)

// Pattern represents a compiled route pattern used for matching request paths.
// Patterns support static segments ('/users/list'), named parameters ('/users/:id'),
// wildcards ('/files/**'), and modifiers (:id?, :tags+, :path*). Use NewPattern to
// create patterns from strings.
type Pattern struct {
	str      string
	segments []segment
	regExp   *regexp.Regexp
}

// NewPattern creates a pattern from a string. Supported syntax: static segments
// ('/users'), named parameters (':id'), wildcards ('*', '**'), inline subpatterns
// (':id(\d+)'), and modifiers ('?' optional, '+' one or more, '*' zero or more).
// Examples: '/users/:id', '/files/**', '/api/:version?/users'. Returns an error
// if the pattern string is invalid.
func NewPattern(patternStr string) (*Pattern, error) {
	segments, err := parsePatternSegments(patternStr)
	if err != nil {
		return nil, err
	}

	patternRegExp, err := regExpFromSegments(segments)
	if err != nil {
		return nil, err
	}

	return &Pattern{
		str:      patternStr,
		segments: segments,
		regExp:   patternRegExp,
	}, nil
}

// MustNewPattern is like NewPattern but panics if the pattern string is
// invalid. Intended for package-level pattern declarations.
func MustNewPattern(patternStr string) *Pattern {
	pattern, err := NewPattern(patternStr)
	if err != nil {
		panic("invalid pattern \"" + patternStr + "\": " + err.Error())
	}
	return pattern
}

// Match compares a path to the pattern and returns a map of named parameters
// extracted from the path as per the pattern. If the path matches the pattern,
// the second return value will be true. If the path does not match the pattern,
// the second return value will be false.
func (p *Pattern) Match(path string) (RouteParams, bool) {
	matches := p.regExp.FindStringSubmatch(path)
	if len(matches) == 0 {
		return nil, false
	}

	keys := p.regExp.SubexpNames()

	params := make(RouteParams, len(keys))
	for i := 1; i < len(keys); i += 1 {
		if keys[i] != "" {
			params[keys[i]] = matches[i]
		}
	}

	return params, true
}

// MatchInto is like Match but reuses an existing RouteParams map instead of
// allocating a new one. The map is cleared before populating with new parameters.
// Returns true if the path matches the pattern. This is used internally by the
// router for performance.
func (p *Pattern) MatchInto(path string, params *RouteParams) bool {
	matchIndices := p.regExp.FindStringSubmatchIndex(path)
	if len(matchIndices) == 0 {
		return false
	}

	keys := p.regExp.SubexpNames()

	if *params == nil {
		*params = make(RouteParams, len(keys))
	}

	for key := range *params {
		delete(*params, key)
	}
	for i := 1; i < len(keys); i += 1 {
		if keys[i] == "" {
			continue
		}
		startIdx := matchIndices[i*2]
		endIdx := matchIndices[i*2+1]
		if startIdx >= 0 && endIdx >= 0 {
			(*params)[keys[i]] = path[startIdx:endIdx]
		} else {
			(*params)[keys[i]] = ""
		}
	}

	return true
}

// Path creates a path string from the pattern by replacing dynamic segments with
// the provided parameters. If a required parameter is missing, an error is
// returned. Optional segments are only included if their parameters are provided.
// Wildcard segments are replaced with values from the wildcards slice in order.
// If there are more wildcard segments than values in the slice, an error is returned.
func (p *Pattern) Path(params RouteParams, wildcards []string) (string, error) {
	path := ""
	wildcardIndex := 0

	for _, seg := range p.segments {
		switch seg.kind {
		case staticSegment:
			path += "/" + seg.pattern
		case paramSegment:
			value, exists := params[seg.key]
			if !exists {
				if seg.modifier == optionalSegment || seg.modifier == zeroOrMoreSegment {
					continue
				}
				return "", errors.New("missing required parameter: " + seg.key)
			}
			path += "/" + value
		case wildcardSegment:
			if wildcardIndex >= len(wildcards) {
				return "", errors.New("not enough wildcard values provided")
			}
			path += "/" + wildcards[wildcardIndex]
			wildcardIndex += 1
		}
	}

	if path == "" {
		path = "/"
	}

	return path, nil
}

// String returns the string representation of the pattern.
func (p *Pattern) String() string {
	return p.str
}

type segmentKind int

const (
	staticSegment segmentKind = iota
	paramSegment
	wildcardSegment
)

type segmentModifier int

const (
	singleSegment segmentModifier = iota
	optionalSegment
	oneOrMoreSegment
	zeroOrMoreSegment
)

type segment struct {
	kind     segmentKind
	modifier segmentModifier
	key      string
	pattern  string
}

// splitPatternSegments splits a pattern string on '/' while leaving slashes
// inside parenthesised subpatterns intact.
func splitPatternSegments(patternStr string) ([]string, error) {
	if len(patternStr) == 0 || patternStr[0] != '/' {
		return nil, errors.New("pattern must start with a leading slash")
	}

	var raw []string
	depth := 0
	start := 1
	for i := 1; i < len(patternStr); i += 1 {
		switch patternStr[i] {
		case '(':
			depth += 1
		case ')':
			depth -= 1
			if depth < 0 {
				return nil, errors.New("unbalanced parentheses in pattern")
			}
		case '/':
			if depth == 0 {
				raw = append(raw, patternStr[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced parentheses in pattern")
	}
	raw = append(raw, patternStr[start:])

	return raw, nil
}

func parsePatternSegments(patternStr string) ([]segment, error) {
	raw, err := splitPatternSegments(patternStr)
	if err != nil {
		return nil, err
	}

	segments := make([]segment, 0, len(raw))
	for _, rawSegment := range raw {
		// "/" and trailing slashes produce empty segments which match nothing
		if rawSegment == "" {
			continue
		}
		seg, err := parseSegment(rawSegment)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

func parseSegment(rawSegment string) (segment, error) {
	seg := segment{}

	switch {
	case rawSegment[0] == ':':
		seg.kind = paramSegment
		rawSegment = rawSegment[1:]
	case rawSegment[0] == '*':
		seg.kind = wildcardSegment
		rawSegment = rawSegment[1:]
		// '**' matches any number of path segments, including none
		if rawSegment == "*" {
			seg.modifier = zeroOrMoreSegment
			return seg, nil
		}
	default:
		seg.kind = staticSegment
	}

	// a trailing modifier applies to the whole segment
	if n := len(rawSegment); n > 0 {
		switch rawSegment[n-1] {
		case '?':
			seg.modifier = optionalSegment
		case '+':
			seg.modifier = oneOrMoreSegment
		case '*':
			seg.modifier = zeroOrMoreSegment
		}
		if seg.modifier != singleSegment {
			rawSegment = rawSegment[:n-1]
		}
	}

	// an inline subpattern, if present, ends the segment
	if openIdx := indexOfUnescaped(rawSegment, '('); openIdx != -1 {
		if rawSegment[len(rawSegment)-1] != ')' {
			return seg, errors.New("unterminated subpattern in segment")
		}
		seg.pattern = rawSegment[openIdx+1 : len(rawSegment)-1]
		rawSegment = rawSegment[:openIdx]
	}

	switch seg.kind {
	case paramSegment:
		if rawSegment == "" {
			return seg, errors.New("named parameters must have a name")
		}
		seg.key = rawSegment
	case staticSegment:
		if seg.pattern != "" && rawSegment != "" {
			return seg, errors.New("static segments cannot mix literals and subpatterns")
		}
		if seg.pattern == "" {
			seg.pattern = rawSegment
		}
	case wildcardSegment:
		if rawSegment != "" {
			return seg, errors.New("wildcard segments cannot have a name")
		}
	}

	return seg, nil
}

func indexOfUnescaped(s string, c byte) int {
	for i := 0; i < len(s); i += 1 {
		if s[i] == '\\' {
			i += 1
			continue
		}
		if s[i] == c {
			return i
		}
	}
	return -1
}

func regExpFromSegments(segments []segment) (*regexp.Regexp, error) {
	regExpStr := "^"
	for _, seg := range segments {

		pattern := seg.pattern
		if pattern == "" {
			pattern = "[^\\/]+"
		}

		switch seg.kind {
		case staticSegment, wildcardSegment:
			switch seg.modifier {
			case singleSegment:
				regExpStr += "\\/" + pattern
			case optionalSegment:
				regExpStr += "(?:\\/" + pattern + ")?"
			case oneOrMoreSegment:
				regExpStr += "\\/" + pattern + "(?:\\/" + pattern + ")*"
			case zeroOrMoreSegment:
				regExpStr += "(?:\\/" + pattern + "(?:\\/" + pattern + ")*)?"
			}
		case paramSegment:
			switch seg.modifier {
			case singleSegment:
				regExpStr += "\\/(?P<" + seg.key + ">" + pattern + ")"
			case optionalSegment:
				regExpStr += "(?:\\/(?P<" + seg.key + ">" + pattern + "))?"
			case oneOrMoreSegment:
				regExpStr += "\\/(?P<" + seg.key + ">(?:" + pattern + ")(?:\\/" + pattern + ")*)"
			case zeroOrMoreSegment:
				regExpStr += "(?:\\/(?P<" + seg.key + ">" + pattern + "(?:\\/" + pattern + ")*))?"
			}
		}
	}

	regExpStr += "\\/?$"

	return regexp.Compile(regExpStr)
}
