package contacts

import (
	"strings"

	"github.com/spigell/resume-screener/internal/candidate"
)

// Reconcile applies minimal corrections to the model's profile using the
// detected values:
//   - email and phone are backfilled when the model returned none;
//   - linkedin_link is replaced by the detected canonical URL when it is
//     missing or not absolute;
//   - detected GitHub links are merged in front of the model's links.
func Reconcile(p *candidate.Profile, d Detected) {
	if p == nil {
		return
	}

	if isBlank(p.Email) {
		p.Email = Primary(d.Emails)
	}
	if isBlank(p.Phone) {
		p.Phone = Primary(d.Phones)
	}

	if isBlank(p.LinkedinLink) || !isAbsolute(*p.LinkedinLink) {
		if detected := Primary(d.LinkedIn); detected != nil {
			p.LinkedinLink = detected
		}
	}

	links := make([]string, 0, len(d.GitHub)+len(p.PortfolioGithubLinks))
	links = append(links, d.GitHub...)
	links = append(links, p.PortfolioGithubLinks...)
	p.PortfolioGithubLinks = dedupe(links)
}

func isBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

func isAbsolute(v string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "http")
}
