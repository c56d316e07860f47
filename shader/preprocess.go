package shader

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

// Preprocessor errors.
var (
	// ErrUnbalancedConditional is returned for #else/#endif without a
	// matching #ifdef, or an #ifdef that is never closed.
	ErrUnbalancedConditional = errors.New("shader: unbalanced conditional directive")

	// ErrMalformedDirective is returned for directives missing a name.
	ErrMalformedDirective = errors.New("shader: malformed directive")
)

// Result is the output of [Preprocess].
type Result struct {
	// Source is the processed source. Directive lines are dropped, except
	// the "#version" pragma when KeepVersion was requested.
	Source string

	// Defines is the set of names defined at the end of the source.
	Defines map[string]bool
}

// Options configures [Preprocess].
type Options struct {
	// KeepVersion preserves "#version" lines in the output.
	KeepVersion bool

	// Predefined names are defined before the first line.
	Predefined []string
}

type frame struct {
	parentActive bool
	active       bool
	taken        bool
	sawElse      bool
}

// Preprocess evaluates conditional directives in source.
//
// Supported directives are #define NAME [value], #undef NAME, #ifdef NAME,
// #ifndef NAME, #else and #endif. Other directives (#version, #extension,
// precision statements) are passed through when active, except #version
// which follows [Options.KeepVersion]. Macro values are recorded but not
// substituted.
func Preprocess(source string, opts Options) (Result, error) {
	defines := make(map[string]bool, len(opts.Predefined))
	for _, name := range opts.Predefined {
		defines[name] = true
	}

	var (
		out   strings.Builder
		stack []frame
		line  int
	)
	active := func() bool {
		if len(stack) == 0 {
			return true
		}
		return stack[len(stack)-1].active
	}

	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line++
		raw := sc.Text()
		trimmed := strings.TrimSpace(raw)
		if !strings.HasPrefix(trimmed, "#") {
			if active() {
				out.WriteString(raw)
				out.WriteByte('\n')
			}
			continue
		}

		directive, arg := splitDirective(trimmed)
		switch directive {
		case "version":
			if opts.KeepVersion && active() {
				out.WriteString(raw)
				out.WriteByte('\n')
			}
		case "define":
			if arg == "" {
				return Result{}, fmt.Errorf("line %d: #define: %w", line, ErrMalformedDirective)
			}
			if active() {
				defines[firstField(arg)] = true
			}
		case "undef":
			if arg == "" {
				return Result{}, fmt.Errorf("line %d: #undef: %w", line, ErrMalformedDirective)
			}
			if active() {
				delete(defines, firstField(arg))
			}
		case "ifdef", "ifndef":
			if arg == "" {
				return Result{}, fmt.Errorf("line %d: #%s: %w", line, directive, ErrMalformedDirective)
			}
			cond := defines[firstField(arg)]
			if directive == "ifndef" {
				cond = !cond
			}
			parent := active()
			stack = append(stack, frame{
				parentActive: parent,
				active:       parent && cond,
				taken:        cond,
			})
		case "else":
			if len(stack) == 0 || stack[len(stack)-1].sawElse {
				return Result{}, fmt.Errorf("line %d: #else: %w", line, ErrUnbalancedConditional)
			}
			top := &stack[len(stack)-1]
			top.sawElse = true
			top.active = top.parentActive && !top.taken
			top.taken = true
		case "endif":
			if len(stack) == 0 {
				return Result{}, fmt.Errorf("line %d: #endif: %w", line, ErrUnbalancedConditional)
			}
			stack = stack[:len(stack)-1]
		default:
			if active() {
				out.WriteString(raw)
				out.WriteByte('\n')
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("shader: scan source: %w", err)
	}
	if len(stack) != 0 {
		return Result{}, fmt.Errorf("%d unterminated #ifdef: %w", len(stack), ErrUnbalancedConditional)
	}

	return Result{Source: out.String(), Defines: defines}, nil
}

// splitDirective splits "#ifdef  NAME" into ("ifdef", "NAME").
func splitDirective(line string) (directive, arg string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	name, arg, _ := strings.Cut(rest, " ")
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		arg = name[i+1:] + " " + arg
		name = name[:i]
	}
	return name, strings.TrimSpace(arg)
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
