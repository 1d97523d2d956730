package profile

import "strings"

// FieldNames lists the six required profile fields in the order questions
// should be asked.
var FieldNames = []string{
	"age",
	"years_experience",
	"education",
	"gender",
	"country",
	"industry",
}

// Profile is the accumulating set of wage-relevant fields extracted from the
// conversation. A nil field means "not yet known". The caller owns the
// profile between turns; the pipeline never stores it.
type Profile struct {
	Age             *string `json:"age"`
	YearsExperience *string `json:"years_experience"`
	Education       *string `json:"education"`
	Gender          *string `json:"gender"`
	Country         *string `json:"country"`
	Industry        *string `json:"industry"`
}

// fields returns pointers to the struct members keyed by field name, in
// FieldNames order.
func (p *Profile) fields() []**string {
	return []**string{
		&p.Age,
		&p.YearsExperience,
		&p.Education,
		&p.Gender,
		&p.Country,
		&p.Industry,
	}
}

// Field returns the value of the named field, or nil if unknown.
func (p Profile) Field(name string) *string {
	for i, n := range FieldNames {
		if n == name {
			return *p.fields()[i]
		}
	}
	return nil
}

// Merge combines a newly extracted profile into the existing one. A non-nil
// field in the update overwrites; a nil field leaves the existing value
// unchanged. Neither input is mutated.
func Merge(existing, update Profile) Profile {
	merged := existing
	dst := merged.fields()
	src := update.fields()
	for i := range dst {
		if *src[i] != nil {
			v := **src[i]
			*dst[i] = &v
		} else if *dst[i] != nil {
			v := **dst[i]
			*dst[i] = &v
		}
	}
	return merged
}

// Missing returns the names of fields that are still unknown, in FieldNames order.
func (p Profile) Missing() []string {
	var missing []string
	vals := p.fields()
	for i, name := range FieldNames {
		if *vals[i] == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Ready reports whether every required field is known.
func (p Profile) Ready() bool {
	return len(p.Missing()) == 0
}

// educationCanonical maps verbose education labels to the short form the
// prediction service expects. Lookup is case-insensitive on the trimmed value.
// Any further canonicalization the service needs must be added here as an
// explicit rule.
var educationCanonical = map[string]string{
	"high school diploma":               "High School",
	"high school diploma or equivalent": "High School",
}

// Standardize returns a copy of the profile with all fields trimmed and
// known education label variants mapped to their canonical form. Only call
// once the profile is complete.
func (p Profile) Standardize() Profile {
	out := p
	for _, f := range out.fields() {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		*f = &v
	}
	if out.Education != nil {
		if canon, ok := educationCanonical[strings.ToLower(*out.Education)]; ok {
			out.Education = &canon
		}
	}
	return out
}
