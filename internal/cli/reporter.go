package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/mbean/internal/errors"
)

// ReportError prints err to w. Bean errors get their kind, location,
// context and suggestions; a collection prints each member in turn.
func ReportError(w io.Writer, err error, verbose bool) {
	var multi *errors.MultipleErrors
	if errors.As(err, &multi) {
		for _, e := range multi.Errors {
			reportBeanError(w, e, verbose)
		}
		return
	}

	var beanErr errors.BeanError
	if errors.As(err, &beanErr) {
		reportBeanError(w, beanErr, verbose)
		return
	}

	color.New(color.FgRed, color.Bold).Fprintf(w, "Error: ")
	fmt.Fprintf(w, "%v\n", err)
}

func reportBeanError(w io.Writer, err errors.BeanError, verbose bool) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(w, "Error (%s/%s): ", err.Kind(), err.ErrorCode())
	fmt.Fprintf(w, "%v\n", err)

	if loc := err.Location(); !loc.IsEmpty() {
		fmt.Fprintf(w, "   at %s\n", loc)
	}

	if verbose {
		printContext(w, err.Context())
		if cause := err.Unwrap(); cause != nil {
			fmt.Fprintf(w, "   cause: %v\n", cause)
		}
	}

	for _, suggestion := range err.Suggestions() {
		color.New(color.FgYellow).Fprint(w, "   hint: ")
		fmt.Fprintln(w, suggestion)
	}
}

func printContext(w io.Writer, context map[string]interface{}) {
	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "   %s: %v\n", formatContextKey(key), context[key])
	}
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
