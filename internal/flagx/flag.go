// Package flagx lets the config layer pick its own flags out of a command
// line that also carries flags owned by other packages.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the arguments belonging to the flags named in keep,
// together with their values. Both the separate form ("-c conf.json") and
// the equals form ("--config=conf.json") are recognized; everything else,
// including positional arguments, is dropped. The result is never nil.
func FilterArgs(args []string, keep []string) []string {
	wanted := make(map[string]bool, len(keep))
	for _, name := range keep {
		wanted[name] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, hasValue := strings.Cut(arg, "="); hasValue {
			if wanted[name] {
				out = append(out, arg)
			}
			continue
		}

		if !wanted[arg] {
			continue
		}
		out = append(out, arg)
		// A following token that is not itself a flag is this flag's value.
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// JsonConfigFlags returns the config file path given via -c or -config,
// or an empty string when neither is present. Parsing goes through a
// filtered argument list so flags defined elsewhere never trip it up.
func JsonConfigFlags() string {
	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	var path string
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(args)

	return path
}
