package pipe

import "strings"

// shellQuote renders s as a single POSIX shell word, safe against
// embedded spaces, quotes, and metacharacters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// shellQuoteArgv renders argv as a space-separated, individually quoted
// command line.
func shellQuoteArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}
