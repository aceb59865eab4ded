package components

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// expr is one directive argument: a quoted string, a numeric or boolean
// literal, or a dotted path resolved against the context at render time.
// Anything richer (filters, arithmetic) belongs to the host template engine.
type expr struct {
	raw   string
	lit   any
	isLit bool
	path  []string
}

func parseExpr(raw string) (expr, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return expr{}, fmt.Errorf("empty expression")
	}
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return expr{raw: s, lit: s[1 : len(s)-1], isLit: true}, nil
		}
	}
	switch s {
	case "true":
		return expr{raw: s, lit: true, isLit: true}, nil
	case "false":
		return expr{raw: s, lit: false, isLit: true}, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return expr{raw: s, lit: int(n), isLit: true}, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return expr{raw: s, lit: f, isLit: true}, nil
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if !reIdent.MatchString(p) {
			return expr{}, fmt.Errorf("invalid expression %q", raw)
		}
	}
	return expr{raw: s, path: parts}, nil
}

// eval resolves the expression against the context stack. Unresolvable paths
// yield nil, matching the host engine's treatment of missing variables.
func (e expr) eval(c *Context) any {
	if e.isLit {
		return e.lit
	}
	v, ok := c.Lookup(e.path[0])
	if !ok {
		return nil
	}
	return walkPath(v, e.path[1:])
}

// evalData resolves the expression against a single map, used for slot
// scoped-data expressions which see only the owning component's data.
func (e expr) evalData(data map[string]any) any {
	if e.isLit {
		return e.lit
	}
	v, ok := data[e.path[0]]
	if !ok {
		return nil
	}
	return walkPath(v, e.path[1:])
}

func walkPath(v any, rest []string) any {
	for _, name := range rest {
		next, ok := fieldOf(v, name)
		if !ok {
			return nil
		}
		v = next
	}
	return v
}

func fieldOf(v any, name string) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case Record:
		return t.Get(name)
	case map[string]any:
		val, ok := t[name]
		return val, ok
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(name))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Struct:
		f := rv.FieldByName(name)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}
