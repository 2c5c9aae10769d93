// Package candidate holds the records handed from one screening stage to the next.
package candidate

import (
	"encoding/json"
	"fmt"
)

// Record is a single ingested resume.
type Record struct {
	Filename string `json:"filename"`
	// Fingerprint is the short digest of the raw file bytes.
	Fingerprint    string  `json:"raw_bytes_fingerprint"`
	Text           string  `json:"text"`
	PrefilterScore float64 `json:"prefilter_score"`
}

// Role is one entry of the applicant's work history.
type Role struct {
	Title          *string `json:"title" mapstructure:"title"`
	Company        *string `json:"company" mapstructure:"company"`
	StartMonth     *int    `json:"start_month" mapstructure:"start_month"`
	StartYear      *int    `json:"start_year" mapstructure:"start_year"`
	EndMonth       *int    `json:"end_month" mapstructure:"end_month"`
	EndYear        *int    `json:"end_year" mapstructure:"end_year"`
	DurationMonths *int    `json:"duration_months" mapstructure:"duration_months"`
}

// Profile is the structured applicant data extracted by the model.
type Profile struct {
	ResumeFileName          string   `json:"resume_file_name" mapstructure:"resume_file_name"`
	ApplicantName           *string  `json:"applicant_name" mapstructure:"applicant_name"`
	Email                   *string  `json:"email" mapstructure:"email"`
	Phone                   *string  `json:"phone" mapstructure:"phone"`
	CityLocation            *string  `json:"city_location" mapstructure:"city_location"`
	College                 *string  `json:"college" mapstructure:"college"`
	EducationLevel          *string  `json:"education_level" mapstructure:"education_level"`
	GraduationYear          *int     `json:"graduation_year" mapstructure:"graduation_year"`
	TotalExperienceYears    *float64 `json:"total_experience_years" mapstructure:"total_experience_years"`
	RelevantExperienceYears *float64 `json:"relevant_experience_years" mapstructure:"relevant_experience_years"`
	CurrentOrLastCompany    *string  `json:"current_or_last_company" mapstructure:"current_or_last_company"`
	KeyRoles                []Role   `json:"key_roles" mapstructure:"key_roles"`
	PortfolioGithubLinks    []string `json:"portfolio_github_links" mapstructure:"portfolio_github_links"`
	LinkedinLink            *string  `json:"linkedin_link" mapstructure:"linkedin_link"`
	Achievements            []string `json:"achievements" mapstructure:"achievements"`
}

// EnsureLists replaces nil list fields with empty ones so they serialize as [].
func (p *Profile) EnsureLists() {
	if p.KeyRoles == nil {
		p.KeyRoles = []Role{}
	}
	if p.PortfolioGithubLinks == nil {
		p.PortfolioGithubLinks = []string{}
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
}

// DimensionScore is the clamped score the model assigned to one rubric dimension.
type DimensionScore struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	MaxPoints int    `json:"max_points"`
	Score     int    `json:"score"`
	Reason    string `json:"reason"`
}

// ScoreField returns the flattened output field name of the score.
func (d DimensionScore) ScoreField() string {
	return ScoreField(d.ID, d.Key)
}

// ReasonField returns the flattened output field name of the reason.
func (d DimensionScore) ReasonField() string {
	return ReasonField(d.ID, d.Key)
}

func ScoreField(id, key string) string {
	return fmt.Sprintf("%s_%s_score", id, key)
}

func ReasonField(id, key string) string {
	return fmt.Sprintf("%s_%s_reason", id, key)
}

// CacheMeta identifies the cache entry a scored record belongs to.
type CacheMeta struct {
	JDFingerprint     string `json:"jd_fingerprint"`
	ResumeFingerprint string `json:"resume_fingerprint"`
	SchemaVersion     string `json:"schema_version"`
	RubricFingerprint string `json:"rubric_fingerprint"`
	CacheHit          bool   `json:"cache_hit"`
}

// Scored is the result of scoring one resume.
type Scored struct {
	Profile
	CacheMeta

	Filename       string           `json:"filename"`
	Dimensions     []DimensionScore `json:"dimensions"`
	TotalScore     *int             `json:"total_score"`
	Rationale      string           `json:"rationale"`
	Evidence       []string         `json:"evidence"`
	PrefilterScore float64          `json:"prefilter_score"`
}

// Dimension returns the score of the dimension with the given id.
func (s *Scored) Dimension(id string) (DimensionScore, bool) {
	for _, d := range s.Dimensions {
		if d.ID == id {
			return d, true
		}
	}
	return DimensionScore{}, false
}

// Flatten renders the record as a single JSON object where every dimension
// contributes <id>_<key>_score and <id>_<key>_reason fields.
func (s *Scored) Flatten() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal scored record: %w", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("unmarshal scored record: %w", err)
	}

	delete(flat, "dimensions")
	for _, d := range s.Dimensions {
		flat[d.ScoreField()] = d.Score
		flat[d.ReasonField()] = d.Reason
	}

	return flat, nil
}

// Ranked is a scored record with its final position.
type Ranked struct {
	Scored

	FinalScore float64 `json:"final_score"`
	Rank       int     `json:"rank"`
}

// Filenames lists the filenames of the records in order.
func Filenames(records []Record) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Filename)
	}
	return names
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
