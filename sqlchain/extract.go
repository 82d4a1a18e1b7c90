package sqlchain

import (
	"fmt"
	"regexp"
	"strings"
)

var fencedSQL = regexp.MustCompile("(?s)```sql\\s*(.*?)\\s*```")

// ExtractSQL pulls the SQL statement out of a model reply. It prefers a
// fenced ```sql block; failing that it collects lines starting at the first
// SELECT or WITH, stopping after a trailing semicolon. If neither form is
// found the raw reply is returned so validation can reject it with context.
func ExtractSQL(reply string) string {
	if match := fencedSQL.FindStringSubmatch(reply); match != nil {
		return strings.TrimSpace(match[1])
	}

	var collected []string
	capturing := false
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		if !capturing && (strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH")) {
			capturing = true
		}
		if capturing {
			collected = append(collected, line)
			if strings.HasSuffix(line, ";") {
				break
			}
		}
	}
	if len(collected) > 0 {
		return strings.Join(collected, "\n")
	}

	return strings.TrimSpace(reply)
}

// dangerousKeywords are statement types that could modify the database. They
// are matched on word boundaries so column names like created_at pass.
var dangerousKeywords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE)\b`)

// ValidateSQL ensures a generated statement is a read-only query.
func ValidateSQL(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("empty query")
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("only SELECT queries are allowed for safety reasons")
	}

	if match := dangerousKeywords.FindString(trimmed); match != "" {
		return fmt.Errorf("dangerous keyword detected: %s", strings.ToUpper(match))
	}

	return nil
}
