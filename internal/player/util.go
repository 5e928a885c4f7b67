package player

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseArgs splits a string of command-line arguments, respecting quotes
func ParseArgs(argsString string) []string {
	var args []string
	var quote rune
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
			current.Reset()
		}
	}

	for _, r := range argsString {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case quote == 0 && r == ' ':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return args
}

// resolveReference resolves a playlist URI relative to the playlist it was found in
func resolveReference(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	if base == nil {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}

// parseResolutionHeight reads the height from a RESOLUTION attribute such as "1280x720".  Zero when absent or malformed.
func parseResolutionHeight(resolution string) int {
	_, h, ok := strings.Cut(strings.ToLower(resolution), "x")
	if !ok {
		return 0
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height < 0 {
		return 0
	}
	return height
}
