package fence

import (
	"regexp"
	"strings"
)

// FallbackTag is used when no heuristic recognizes the content
const FallbackTag = "text"

// KnownTags are the tags inference can produce plus the ones commonly
// inserted by hand in the same documents
var KnownTags = []string{
	"bash", "csharp", "http", "json", "markdown",
	"powershell", "sql", "text", "xml", "yaml",
}

// IsKnownTag reports whether tag is in KnownTags
func IsKnownTag(tag string) bool {
	for _, t := range KnownTags {
		if t == tag {
			return true
		}
	}
	return false
}

var (
	psMarkerRe     = regexp.MustCompile(`\$env:|Get-|Set-|New-|Remove-`)
	shellCmdRe     = regexp.MustCompile(`(?m)^\s*(dotnet|cd|chmod|ls|cat|grep|mkdir|rm|cp|mv|curl|docker)\b`)
	psCmdletRe     = regexp.MustCompile(`(?m)^\s*(Get-|Set-|New-|Remove-|Import-|Export-|Select-|Where-|\$env:)`)
	yamlKeyRe      = regexp.MustCompile(`(?m)^\s*(apiVersion|kind:|metadata:|spec:)`)
	csharpRe       = regexp.MustCompile(`(?m)^\s*(using |namespace |public class|private |protected |var |async |await )`)
	sqlRe          = regexp.MustCompile(`(?i)^\s*(SELECT|INSERT|UPDATE|DELETE|CREATE TABLE|ALTER TABLE)`)
	xmlRe          = regexp.MustCompile(`(?m)^\s*(<\?xml|<[a-zA-Z])`)
	credentialRe   = regexp.MustCompile(`Username:|Password:|Email:|Role:|Token:`)
	connStringRe   = regexp.MustCompile(`Server=|Database=|User Id=|Password=`)
	jsonConfigKeys = []string{`"AppSettings"`, `"ConnectionString"`}
)

// rule is one row of the inference decision table
type rule struct {
	tag   string
	match func(content string) bool
}

// rules are checked in order after the shell comment check; the first match wins
var rules = []rule{
	{"bash", shellCmdRe.MatchString},
	{"powershell", psCmdletRe.MatchString},
	{"json", looksLikeJSON},
	{"yaml", yamlKeyRe.MatchString},
	{"csharp", csharpRe.MatchString},
	{"sql", sqlRe.MatchString},
	{"xml", xmlRe.MatchString},
	{"text", credentialRe.MatchString},
	{"bash", func(s string) bool { return strings.Contains(s, "npm ") || strings.Contains(s, "node ") }},
	{"text", connStringRe.MatchString},
}

// InferLanguage guesses the language tag for the content of an untagged block
func InferLanguage(content string) string {
	if hasShellComment(content) {
		if psMarkerRe.MatchString(content) {
			return "powershell"
		}
		return "bash"
	}

	for _, r := range rules {
		if r.match(content) {
			return r.tag
		}
	}
	return FallbackTag
}

// hasShellComment reports a "# comment" line; "##" reads as a markdown heading
func hasShellComment(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "##") {
			return true
		}
	}
	return false
}

func looksLikeJSON(content string) bool {
	if strings.HasPrefix(strings.TrimSpace(content), "{") {
		return true
	}
	for _, key := range jsonConfigKeys {
		if strings.Contains(content, key) {
			return true
		}
	}
	return false
}
