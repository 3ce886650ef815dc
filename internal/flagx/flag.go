// Package flagx lets several configuration layers share os.Args: each layer
// picks out only the flags it owns and parses them with its own FlagSet.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args made of allowed flags and their
// values. Both "-flag value" and "-flag=value" forms are recognised; a value
// is only consumed when the next token does not itself start with '-'.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// StringFlag extracts the value of a single string flag known under any of
// names (given without the leading dash, e.g. "c", "config"). Other
// arguments are ignored. Returns "" when the flag is absent.
func StringFlag(args []string, names ...string) string {
	var value string

	dashed := make([]string, 0, len(names))
	fs := flag.NewFlagSet("flagx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		dashed = append(dashed, "-"+n)
		fs.StringVar(&value, n, "", n)
	}

	_ = fs.Parse(FilterArgs(args, dashed))

	return value
}

// JsonConfigFlags returns the config file path given via -c or -config.
func JsonConfigFlags(args []string) string {
	return StringFlag(args, "c", "config")
}
