package models

import "time"

// Condition identifies one predicted health condition. The set is closed;
// conditions differ only in which bundle and rule table back them.
type Condition string

const (
	ConditionB12      Condition = "b12_deficiency"
	ConditionIron     Condition = "iron_deficiency"
	ConditionDiabetes Condition = "diabetes"
)

// Conditions returns the closed condition set in canonical order. Aggregation
// and serialization always follow this order so results are deterministic.
func Conditions() []Condition {
	return []Condition{ConditionB12, ConditionIron, ConditionDiabetes}
}

func (c Condition) Valid() bool {
	switch c {
	case ConditionB12, ConditionIron, ConditionDiabetes:
		return true
	}
	return false
}

// DisplayName is the user-facing name for a condition.
func (c Condition) DisplayName() string {
	switch c {
	case ConditionB12:
		return "Vitamin B12 Deficiency"
	case ConditionIron:
		return "Anemia Risk"
	case ConditionDiabetes:
		return "Diabetes Risk (Limited)"
	}
	return string(c)
}

// ClinicalNote returns the next-step guidance attached to every prediction
// for the condition, independent of the predicted level.
func (c Condition) ClinicalNote() string {
	switch c {
	case ConditionB12:
		return "Based on demographic and health indicators. This prediction does not diagnose B12 deficiency. Next step: if high risk, request serum B12 (and MMA) from a GP."
	case ConditionIron:
		return "Based on hemoglobin levels (WHO criteria), not iron stores specifically. Next step: confirm with a lab Hb test; if low, a clinician should check ferritin."
	case ConditionDiabetes:
		return "Based on demographic indicators only and has very limited accuracy for diabetes screening. Next step: consult a healthcare provider for HbA1c or fasting glucose testing."
	}
	return ""
}

type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "Very Low"
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "Very High"
)

// Rank orders risk levels from Very Low (0) upward. Unknown levels rank
// below Very Low so they never satisfy a minimum-level rule.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskVeryLow:
		return 0
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	case RiskVeryHigh:
		return 4
	}
	return -1
}

// ConditionPrediction is the per-condition outcome for one request. A failed
// condition carries only the Error marker; scores are zero-valued.
type ConditionPrediction struct {
	Condition   Condition `json:"condition"`
	DisplayName string    `json:"display_name"`
	RiskScore   float64   `json:"risk_score"`
	RiskLevel   RiskLevel `json:"risk_level,omitempty"`
	Confidence  float64   `json:"confidence"`
	Note        string    `json:"note,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Failed reports whether this entry is an error marker rather than a result.
func (p ConditionPrediction) Failed() bool {
	return p.Error != ""
}

// FeatureContribution is one signed attribution entry. Positive contributions
// increase predicted risk, negative ones decrease it.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	FeatureName  string  `json:"feature_name"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

type Recommendation struct {
	Condition Condition `json:"condition,omitempty"`
	Category  string    `json:"category"`
	Priority  string    `json:"priority"`
	Text      string    `json:"text"`
	Rationale string    `json:"rationale,omitempty"`
}

// PredictionResult aggregates one orchestrator call. It has no lifecycle
// beyond the request/response cycle.
type PredictionResult struct {
	RequestID       string                              `json:"request_id"`
	Predictions     map[Condition]ConditionPrediction   `json:"predictions"`
	Explanations    map[Condition][]FeatureContribution `json:"shap_explanations"`
	Recommendations []Recommendation                    `json:"recommendations"`
	WellnessScore   float64                             `json:"wellness_score"`
	GeneratedAt     time.Time                           `json:"generated_at"`
}

// BundleMetadata is surfaced by the health/status and model-listing endpoints.
type BundleMetadata struct {
	Condition       Condition `json:"condition"`
	Version         string    `json:"version"`
	AUC             float64   `json:"auc"`
	CalibratedAUC   float64   `json:"calibrated_auc"`
	TrainingSamples int       `json:"training_samples"`
}

// Event is the envelope published to the prediction topic.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}
