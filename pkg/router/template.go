package router

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidTemplate is returned for path templates that cannot be compiled
var ErrInvalidTemplate = errors.New("invalid path template")

var (
	bracePattern = regexp.MustCompile(`\{([^/{}]+)\}`)
	paramPattern = regexp.MustCompile(`^:([A-Za-z0-9_]+)([+*]?)$`)
)

// NormalizeTemplate rewrites brace parameters ("/users/{id}", "{proxy+}")
// into colon syntax ("/users/:id", ":proxy+").
func NormalizeTemplate(template string) string {
	return bracePattern.ReplaceAllString(template, ":$1")
}

type segmentKind int

const (
	segmentSingle segmentKind = iota
	segmentOneOrMore
	segmentZeroOrMore
)

// matcher is a compiled path template
type matcher struct {
	template string
	regex    *regexp.Regexp
	keys     []string
	kinds    []segmentKind
}

// compile turns a template into an anchored, case-insensitive regexp that
// tolerates one trailing slash.
func compile(template string) (*matcher, error) {
	normalized := NormalizeTemplate(template)
	if !strings.HasPrefix(normalized, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidTemplate, template)
	}

	m := &matcher{template: template}
	var sb strings.Builder
	sb.WriteString("(?i)^")

	trimmed := strings.TrimSuffix(normalized, "/")
	if trimmed != "" {
		for _, segment := range strings.Split(trimmed[1:], "/") {
			if !strings.HasPrefix(segment, ":") {
				if strings.ContainsAny(segment, "{}") {
					return nil, fmt.Errorf("%w: unbalanced brace in %q", ErrInvalidTemplate, template)
				}
				sb.WriteString("/")
				sb.WriteString(regexp.QuoteMeta(segment))
				continue
			}

			parts := paramPattern.FindStringSubmatch(segment)
			if parts == nil {
				return nil, fmt.Errorf("%w: bad parameter %q in %q", ErrInvalidTemplate, segment, template)
			}
			m.keys = append(m.keys, parts[1])
			switch parts[2] {
			case "+":
				m.kinds = append(m.kinds, segmentOneOrMore)
				sb.WriteString(`/([^/]+(?:/[^/]+)*)`)
			case "*":
				m.kinds = append(m.kinds, segmentZeroOrMore)
				sb.WriteString(`(?:/([^/]+(?:/[^/]+)*))?`)
			default:
				m.kinds = append(m.kinds, segmentSingle)
				sb.WriteString(`/([^/]+)`)
			}
		}
	}
	sb.WriteString("/?$")

	regex, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	m.regex = regex
	return m, nil
}

// match reports whether path matches and returns the decoded parameters.
// A name used twice keeps its last capture.
func (m *matcher) match(path string) (map[string]string, bool) {
	loc := m.regex.FindStringSubmatchIndex(path)
	if loc == nil {
		return nil, false
	}

	params := make(map[string]string, len(m.keys))
	for i, key := range m.keys {
		start, end := loc[2*(i+1)], loc[2*(i+1)+1]
		if start < 0 {
			continue
		}
		params[key] = decodeCapture(path[start:end], m.kinds[i])
	}
	return params, true
}

func decodeCapture(raw string, kind segmentKind) string {
	if kind == segmentSingle {
		return unescape(raw)
	}
	segments := strings.Split(raw, "/")
	for i, s := range segments {
		segments[i] = unescape(s)
	}
	return strings.Join(segments, "/")
}

func unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
