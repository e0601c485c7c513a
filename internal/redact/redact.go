// Package redact scrubs sensitive material from strings before they reach
// logs or error responses: credentials, connection strings, tokens, SQL
// values, identifiers and file paths.
package redact

import "regexp"

// Placeholders substituted for redacted content.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// rule pairs a pattern with its replacement. The replacement may reference
// capture groups, which the SQL rules use to keep the query shape while
// dropping the values.
type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules apply in order. The SQL rules run first so literals inside queries
// are handled as query values rather than as stray emails or identifiers;
// the credential rules run before the broad host and path rules.
var rules = []rule{
	// SQL statements: preserve the statement shape, drop the values.
	{
		regexp.MustCompile(`(?i)(INSERT\s+INTO\s+[\w.]+\s*\([^)]*\)\s+VALUES)\s*\(.*`),
		"$1 [SQL_VALUES_REDACTED]",
	},
	{
		regexp.MustCompile(`(?i)(UPDATE\s+[\w.]+\s+SET)\s+.*`),
		"$1 [SQL_VALUES_REDACTED]",
	},
	{
		regexp.MustCompile(`(?i)(DELETE\s+FROM\s+[\w.]+)\s+WHERE\s.*`),
		"$1 [SQL_WHERE_REDACTED]",
	},
	{
		regexp.MustCompile(`(?i)SELECT\s.*?\sFROM\s.*`),
		"SELECT FROM... [SQL_VALUES_REDACTED]",
	},
	{
		regexp.MustCompile(
			`(?i)(CREATE|ALTER|DROP|GRANT)[\s\w,*()]+(?:TABLE|DATABASE|SCHEMA|VIEW)(?:[\s\w,*()='"]+)?`,
		),
		"[REDACTED_SQL]",
	},

	// Connection strings and credentials.
	{
		regexp.MustCompile(`(?i)(postgres|mysql|mongodb|db|database|connection)://[^@]+@`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(AKIA|AccessKey(Id)?)([^a-zA-Z0-9])?[A-Z0-9]{8,}`),
		RedactedKeyPlaceholder,
	},
	// Three-part base64url JWT.
	{
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		"[REDACTED_JWT]",
	},

	// Record identifiers.
	{
		regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`),
		"[REDACTED_UUID]",
	},

	// File paths.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), RedactedPathPlaceholder},

	// Stack traces.
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		"[STACK_TRACE_REDACTED]",
	},

	// Emails, hosts and error details that leak internals.
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
		"[REDACTED_EMAIL]",
	},
	{regexp.MustCompile(`(?:at )?line ?\d+`), "[REDACTED_LINE_NUMBER]"},
	{regexp.MustCompile(`(?i)syntax error|syntax problem|parse error`), "[REDACTED_SYNTAX_ERROR]"},
	{
		regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`),
		"[REDACTED_HOST]",
	},
	{
		regexp.MustCompile(`(?i)(?:no such file|file not found|can't open|cannot open|file error)`),
		"[REDACTED_FILE_ERROR]",
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
