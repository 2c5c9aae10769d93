package contacts

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	HintBlockStart = "=== DETECTED_CONTACTS ==="
	HintBlockEnd   = "=== END_DETECTED_CONTACTS ==="
)

// RenderHintBlock appends a delimited, machine-readable section listing the
// detected values so the model can copy canonical values verbatim.
func RenderHintBlock(text string, d Detected) string {
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(HintBlockStart)
	b.WriteString("\n")
	writeHintLine(&b, "emails", d.Emails)
	writeHintLine(&b, "phones", d.Phones)
	writeHintLine(&b, "linkedin", d.LinkedIn)
	writeHintLine(&b, "github", d.GitHub)
	writeHintLine(&b, "other_urls", d.OtherURLs)
	b.WriteString(HintBlockEnd)
	b.WriteString("\n")
	return b.String()
}

func writeHintLine(b *strings.Builder, name string, values []string) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		// a []string always marshals
		encoded = []byte("[]")
	}
	fmt.Fprintf(b, "%s: %s\n", name, encoded)
}
