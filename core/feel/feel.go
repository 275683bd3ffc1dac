// Package feel implements the FEEL-subset micro-templating used in a
// PreparedRule's action_result: "{name}" variable substitution and a
// "string join(...)" call form. Any evaluation error returns the
// original template unchanged; it must never abort the engine's hot path.
package feel

import (
	"fmt"
	"strings"
)

// IsTemplate reports whether a token needs FEEL-subset evaluation at all,
// so the engine can skip the cost for the common case of a bare symbol.
func IsTemplate(token string) bool {
	return strings.Contains(token, "{") || strings.Contains(token, "string join")
}

// Eval evaluates a FEEL-subset template against a fact map. On any error
// it returns the original template string, never an error to the caller.
func Eval(template string, facts map[string]interface{}) string {
	result, err := eval(template, facts)
	if err != nil {
		return template
	}
	return result
}

func eval(template string, facts map[string]interface{}) (string, error) {
	if strings.Contains(template, "string join") {
		return evalStringJoin(template, facts)
	}
	return substituteVars(template, facts), nil
}

// substituteVars replaces every {name} with the fact value at key name;
// a missing key substitutes the empty string.
func substituteVars(template string, facts map[string]interface{}) string {
	var b strings.Builder
	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '{')
		if open == -1 {
			b.WriteString(template[i:])
			break
		}
		close := strings.IndexByte(template[i+open:], '}')
		if close == -1 {
			b.WriteString(template[i:])
			break
		}
		b.WriteString(template[i : i+open])
		name := template[i+open+1 : i+open+close]
		b.WriteString(valueToString(facts[name]))
		i = i + open + close + 1
	}
	return b.String()
}

func valueToString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// evalStringJoin parses "string join(arg1, arg2, ...)" respecting balanced
// quotes, resolves each argument ({name} or a quoted literal), and joins
// them: args are read as alternating value/separator pairs and
// even-indexed values are joined with the first separator, EXCEPT the
// exact two-argument form, where the second argument is only treated as a
// real separator when it is longer than 5 characters; a short second
// argument degenerates to returning the first value alone. Blank resolved
// values are elided before joining so a missing {name} never leaves a
// stray separator or a lone separator behind.
func evalStringJoin(template string, facts map[string]interface{}) (string, error) {
	open := strings.Index(template, "string join(")
	if open == -1 {
		return "", fmt.Errorf("malformed string join template")
	}
	rest := template[open+len("string join("):]
	closeIdx := matchingParen(rest)
	if closeIdx == -1 {
		return "", fmt.Errorf("unbalanced parens in string join template")
	}
	argsRaw := rest[:closeIdx]
	rawArgs := splitArgsRespectingQuotes(argsRaw)

	args := make([]string, 0, len(rawArgs))
	for _, a := range rawArgs {
		args = append(args, resolveArg(strings.TrimSpace(a), facts))
	}

	if len(args) == 0 {
		return "", fmt.Errorf("string join requires at least one argument")
	}
	if len(args) == 1 {
		return args[0], nil
	}
	if len(args) == 2 {
		if len(args[1]) <= 5 {
			return args[0], nil
		}
		if args[0] == "" {
			return "", nil
		}
		return args[0] + args[1], nil
	}

	sep := args[1]
	var values []string
	for i := 0; i < len(args); i += 2 {
		if args[i] == "" {
			continue
		}
		values = append(values, args[i])
	}
	return strings.Join(values, sep), nil
}

func resolveArg(arg string, facts map[string]interface{}) string {
	if len(arg) >= 2 && (arg[0] == '"' || arg[0] == '\'') && arg[len(arg)-1] == arg[0] {
		return arg[1 : len(arg)-1]
	}
	if strings.HasPrefix(arg, "{") && strings.HasSuffix(arg, "}") {
		return valueToString(facts[arg[1:len(arg)-1]])
	}
	return arg
}

func matchingParen(s string) int {
	depth := 1
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgsRespectingQuotes splits a comma-separated argument list,
// ignoring commas inside balanced single or double quotes.
func splitArgsRespectingQuotes(s string) []string {
	var args []string
	var cur strings.Builder
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == ',':
			args = append(args, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 || len(args) > 0 {
		args = append(args, cur.String())
	}
	return args
}
