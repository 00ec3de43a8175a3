package features

// NHANES feature codes and their human-readable descriptions, exposed through
// the features-listing endpoint and attached to attribution entries.
var descriptions = map[string]string{
	"RIDAGEYR": "Age (years)",
	"RIAGENDR": "Gender",
	"RIDRETH3": "Race/Ethnicity",
	"BMXWT":    "Weight (kg)",
	"BMXHT":    "Height (cm)",
	"BMXBMI":   "Body Mass Index",
	"SDDSRVYR": "Survey Year",
	"RIDSTATR": "Interview/Examination Status",
	"RIDRETH1": "Race/Ethnicity (Detailed)",
	"RIDEXMON": "Examination Month",
	"DMQMILIZ": "Military Service",
	"DMDBORN4": "Country of Birth",
	"DMDCITZN": "Citizenship Status",
	"DMDEDUC2": "Education Level",
	"DMDMARTL": "Marital Status",
	"SIALANG":  "Interview Language",
	"SIAPROXY": "Proxy Used in Interview",
	"SIAINTRP": "Interpreter Used",
	"FIALANG":  "Family Interview Language",
	"FIAPROXY": "Family Proxy Used",
}

// Describe maps a feature code to its description, falling back to the code
// itself for fields absent from the table.
func Describe(code string) string {
	if desc, ok := descriptions[code]; ok {
		return desc
	}
	return code
}

// FieldDescription pairs a feature code with its meaning for the listing
// endpoint.
type FieldDescription struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// DescribeSchema returns the description list for an ordered schema.
func DescribeSchema(schema []string) []FieldDescription {
	out := make([]FieldDescription, 0, len(schema))
	for _, code := range schema {
		out = append(out, FieldDescription{Code: code, Description: Describe(code)})
	}
	return out
}
