package qparse

import (
	"fmt"
	"strings"
)

// This file contains the parser for coercer expressions, the textual form
// of a template leaf used by struct tags and template spec files. It
// supports the following grammar:
//
// expr:
//     <name> | <name>:<simple_arg> | <name>:'<arg>'
// name:
//     [A-Za-z_][A-Za-z0-9_]*
// simple_arg:
//     <string without white space>
// arg:
//     <string> // may hold nested expressions such as enum:'1,2'
//
// A nested expression opens with :' and closes with ', so
// array:'enum:'1,2'' has the argument enum:'1,2'. A backslash keeps the
// next character from opening or closing a level and is itself kept.

// CoercerExpr is a decoded coercer expression.
// Example: enum:'GUEST,USER' -> {Name: "enum", Arg: "GUEST,USER"}
type CoercerExpr struct {
	Name string
	Arg  string
}

// String renders e back into expression form.
func (e CoercerExpr) String() string {
	if e.Arg == "" {
		return e.Name
	}
	return e.Name + ExprKVDelimiter + string(ExprArgDelimiter) + e.Arg + string(ExprArgDelimiter)
}

// ParseCoercerExpr decodes a coercer expression.
func ParseCoercerExpr(expr string) (CoercerExpr, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return CoercerExpr{}, fmt.Errorf("%w: empty expression", ErrInvalidCoercerExpr)
	}

	name, rest, hasArg := strings.Cut(expr, ExprKVDelimiter)
	name = strings.TrimSpace(name)
	if !isExprName(name) {
		return CoercerExpr{}, fmt.Errorf("%w: bad coercer name %q in %q", ErrInvalidCoercerExpr, name, expr)
	}
	if !hasArg {
		return CoercerExpr{Name: name}, nil
	}

	rest = strings.TrimLeft(rest, " \t")
	if rest == "" {
		return CoercerExpr{}, fmt.Errorf("%w: no value found after %q", ErrInvalidCoercerExpr, name)
	}

	// If the value doesn't start with our delimiter, it's a simple value
	if rest[0] != ExprArgDelimiter {
		if strings.ContainsAny(rest, " \t") {
			return CoercerExpr{}, fmt.Errorf("%w: unquoted argument with white space in %q", ErrInvalidCoercerExpr, expr)
		}
		return CoercerExpr{Name: name, Arg: rest}, nil
	}

	arg, end, err := scanDelimited(rest, ExprArgDelimiter)
	if err != nil {
		return CoercerExpr{}, fmt.Errorf("%w: %s in %q", ErrInvalidCoercerExpr, err.Error(), expr)
	}
	if trailing := strings.TrimSpace(rest[end:]); trailing != "" {
		return CoercerExpr{}, fmt.Errorf("%w: unexpected %q after argument in %q", ErrInvalidCoercerExpr, trailing, expr)
	}
	return CoercerExpr{Name: name, Arg: arg}, nil
}

// scanDelimited reads a delimited value starting at s[0] (the opening
// delimiter). It returns the value and the index just past the closing
// delimiter.
func scanDelimited(s string, delim byte) (string, int, error) {
	var builder strings.Builder
	escaped := false
	nestingLevel := 0 // Track how deep we are in nested expressions

	for i := 1; i < len(s); i++ {
		c := s[i]

		if c == '\\' && !escaped {
			escaped = true
			builder.WriteByte(c)
			continue
		}

		if !escaped {
			switch c {
			case ':':
				// A colon followed by our delimiter opens a nested expression
				if i+1 < len(s) && s[i+1] == delim {
					nestingLevel++
					builder.WriteByte(c)
					i++
					builder.WriteByte(s[i])
					continue
				}
			case delim:
				if nestingLevel == 0 {
					return builder.String(), i + 1, nil
				}
				builder.WriteByte(c)
				nestingLevel--
				continue
			}
		}

		builder.WriteByte(c)
		escaped = false
	}

	return "", 0, fmt.Errorf("unterminated argument")
}

func isExprName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// splitArgList splits a comma separated argument, trimming each item and
// dropping empty ones.
func splitArgList(arg string) []string {
	parts := strings.Split(arg, ExprListDelim)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
