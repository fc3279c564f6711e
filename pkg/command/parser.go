package command

import "strings"

// Invocation is a prefix-stripped command name plus its argument tokens.
type Invocation struct {
	Name string
	Args []string
}

// Tokens returns the full token sequence with the command name at index 0.
func (i Invocation) Tokens() []string {
	return append([]string{i.Name}, i.Args...)
}

// Parse extracts an invocation from chat text. It reports false when the text
// does not start with prefix or carries no command name after it.
func Parse(text string, prefix string) (Invocation, bool) {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return Invocation{}, false
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return Invocation{}, false
	}

	name := strings.TrimPrefix(words[0], prefix)
	if name == "" {
		return Invocation{}, false
	}

	return Invocation{Name: name, Args: words[1:]}, true
}
