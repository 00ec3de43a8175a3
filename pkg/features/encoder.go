package features

import (
	"github.com/nutriscan-ai/platform/pkg/profile"
)

// Category tables mirror the NHANES encodings the bundles were trained
// against. Unknown values deliberately bucket to the "Other" code so the
// encoder stays usable on inputs outside the training categories.
var (
	raceCodes = map[string]float64{
		"Mexican American":   1,
		"Other Hispanic":     2,
		"Non-Hispanic White": 3,
		"White":              3,
		"Non-Hispanic Black": 4,
		"Black":              4,
	}
	raceOther = 6.0

	educationCodes = map[string]float64{
		"Less than 9th grade":       1,
		"9-11th grade":              2,
		"High school graduate":      3,
		"Some college":              4,
		"College graduate":          5,
		"College graduate or above": 5,
	}
	educationOther = 3.0

	maritalCodes = map[string]float64{
		"Married":             1,
		"Widowed":             2,
		"Divorced":            3,
		"Separated":           4,
		"Never married":       5,
		"Single":              5,
		"Living with partner": 6,
	}
	maritalOther = 5.0
)

// Survey-context defaults carried over from the training frame. Every subject
// scored at request time is encoded as if interviewed and examined in the
// reference cycle, in English, without a proxy.
const (
	surveyCycle        = 8
	examinedStatus     = 2
	defaultExamMonth   = 6
	defaultYes         = 1
	defaultNo          = 2
	defaultLanguageEng = 1
)

// Encoder maps a SubjectProfile into the fixed-order vector a bundle schema
// expects. It is stateless and shared by all requests.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode validates the profile's numeric ranges and produces one value per
// schema field, in schema order. The vector length therefore always matches
// the schema; field codes outside the known set encode as 0.
func (e *Encoder) Encode(p profile.SubjectProfile, schema []string) (Vector, error) {
	if err := p.Validate(); err != nil {
		return Vector{}, err
	}

	fields := make([]string, len(schema))
	values := make([]float64, len(schema))
	copy(fields, schema)

	var raceCode float64
	for i, field := range schema {
		switch field {
		case "RIDAGEYR":
			values[i] = float64(p.Age)
		case "RIAGENDR":
			if p.Gender == profile.GenderMale {
				values[i] = 1
			} else {
				values[i] = 2
			}
		case "RIDRETH3":
			raceCode = lookup(raceCodes, p.Race, raceOther)
			values[i] = raceCode
		case "RIDRETH1":
			if raceCode == 0 {
				raceCode = lookup(raceCodes, p.Race, raceOther)
			}
			values[i] = raceCode
		case "BMXWT":
			values[i] = p.Weight
		case "BMXHT":
			values[i] = p.Height
		case "BMXBMI":
			values[i] = p.BMI()
		case "DMDBORN4":
			if p.CountryOfBirth == "United States" || p.CountryOfBirth == "US" {
				values[i] = 1
			} else {
				values[i] = 2
			}
		case "DMDEDUC2":
			values[i] = lookup(educationCodes, p.Education, educationOther)
		case "DMDMARTL":
			values[i] = lookup(maritalCodes, p.MaritalStatus, maritalOther)
		case "SDDSRVYR":
			values[i] = surveyCycle
		case "RIDSTATR":
			values[i] = examinedStatus
		case "RIDEXMON":
			values[i] = defaultExamMonth
		case "DMQMILIZ", "DMDCITZN":
			values[i] = defaultYes
		case "SIALANG", "FIALANG":
			values[i] = defaultLanguageEng
		case "SIAPROXY", "SIAINTRP", "FIAPROXY":
			values[i] = defaultNo
		default:
			values[i] = 0
		}
	}

	return Vector{Fields: fields, Values: values}, nil
}

func lookup(table map[string]float64, key string, fallback float64) float64 {
	if code, ok := table[key]; ok {
		return code
	}
	return fallback
}
