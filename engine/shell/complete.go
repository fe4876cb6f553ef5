package shell

import (
	"sort"
	"strings"
)

var words = []string{
	// builtins handled by the interpreter
	".", ":", "[", "alias", "bg", "break", "builtin", "cd", "command",
	"continue", "dirs", "echo", "eval", "exec", "exit", "export", "false",
	"fg", "getopts", "local", "mapfile", "popd", "printf", "pushd", "pwd",
	"read", "readarray", "readonly", "return", "set", "shift", "shopt",
	"source", "test", "trap", "true", "type", "umask", "unalias", "unset",
	"wait",
	// reserved words
	"case", "do", "done", "elif", "else", "esac", "fi", "for", "function",
	"if", "in", "select", "then", "time", "until", "while",
}

func init() {
	sort.Strings(words)
}

// Complete returns the builtins and reserved words starting with prefix.
func (s *Shell) Complete(prefix string) []string {
	if prefix == "" {
		return nil
	}
	var out []string
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}
	return out
}
