// Package contacts finds contact details in resume text and reconciles them
// with the values a model extracted.
package contacts

import (
	"regexp"
	"strings"
)

var (
	httpURLRe = regexp.MustCompile(`(?i)https?://[^\s)<>\]]+`)
	emailRe   = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)

	// Indian numbering: optional +91/91/0 prefix, then a mobile number or any
	// ten digits separated by spaces or dashes.
	phoneRe = regexp.MustCompile(
		`(?:(?:\+?91[\s\-]?)|(?:0))?\s*(?:[6-9]\d{9}|\d[\s\-]*\d[\s\-]*\d[\s\-]*\d[\s\-]*\d[\s\-]*\d[\s\-]*\d[\s\-]*\d[\s\-]*\d[\s\-]*\d)`,
	)

	linkedinPartialRe = regexp.MustCompile(`(?i)\b(?:linkedin\.com/)?in/[A-Za-z0-9\-_.]+/?\b`)
	githubPartialRe   = regexp.MustCompile(`(?i)\b(?:github\.com/|github/)[A-Za-z0-9\-_.]+/?\b`)
)

const (
	linkedinBase = "https://www.linkedin.com/in/"
	githubBase   = "https://github.com/"

	linkedinMarker = "linkedin.com/in/"
	githubMarker   = "github.com/"

	trimCutset = ").,;"
)

// Detected lists the contact details found in a text. Every list keeps the
// order of first occurrence and holds no duplicates.
type Detected struct {
	Emails    []string `json:"emails"`
	Phones    []string `json:"phones"`
	LinkedIn  []string `json:"linkedin"`
	GitHub    []string `json:"github"`
	OtherURLs []string `json:"other_urls"`
	AllURLs   []string `json:"all_urls"`
}

// Detect runs the independent pattern passes over raw resume text.
func Detect(text string) Detected {
	urls := dedupe(httpURLRe.FindAllString(text, -1))

	linkedin := make([]string, 0)
	for _, m := range linkedinPartialRe.FindAllString(text, -1) {
		linkedin = append(linkedin, canonicalLinkedIn(m))
	}

	github := make([]string, 0)
	for _, m := range githubPartialRe.FindAllString(text, -1) {
		github = append(github, canonicalGitHub(m))
	}

	var linkedinFull, githubFull, other []string
	for _, u := range urls {
		lower := strings.ToLower(u)
		switch {
		case strings.Contains(lower, linkedinMarker):
			linkedinFull = append(linkedinFull, u)
		case strings.Contains(lower, githubMarker):
			githubFull = append(githubFull, u)
		default:
			other = append(other, u)
		}
	}

	return Detected{
		Emails:    dedupe(emailRe.FindAllString(text, -1)),
		Phones:    dedupe(phoneRe.FindAllString(text, -1)),
		LinkedIn:  dedupe(append(linkedinFull, linkedin...)),
		GitHub:    dedupe(append(githubFull, github...)),
		OtherURLs: dedupe(other),
		AllURLs:   urls,
	}
}

// canonicalLinkedIn turns "in/jane", "linkedin.com/in/jane/" and similar
// partial handles into an absolute profile URL.
func canonicalLinkedIn(s string) string {
	s = clean(s)
	lower := strings.ToLower(s)
	idx := strings.LastIndex(lower, "in/")
	if idx == -1 {
		return s
	}
	handle := strings.Trim(s[idx+len("in/"):], "/")
	if handle == "" {
		return ""
	}
	return linkedinBase + handle
}

// canonicalGitHub turns "github/jane" or "github.com/jane" into an absolute URL.
func canonicalGitHub(s string) string {
	s = clean(s)
	lower := strings.ToLower(s)
	idx := strings.Index(lower, "github")
	if idx == -1 {
		return s
	}
	rest := s[idx+len("github"):]
	if strings.HasPrefix(strings.ToLower(rest), ".com") {
		rest = rest[len(".com"):]
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return ""
	}
	return githubBase + rest
}

func clean(s string) string {
	return strings.Trim(strings.TrimSpace(s), trimCutset)
}

// dedupe trims surrounding whitespace and punctuation and drops empty values
// and repeats, keeping first occurrences.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = clean(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Primary returns the first value or nil.
func Primary(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
