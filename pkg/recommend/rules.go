package recommend

import (
	"fmt"
	"os"

	"github.com/nutriscan-ai/platform/pkg/common/models"
	"gopkg.in/yaml.v3"
)

const (
	CategoryMedical   = "Medical"
	CategoryDietary   = "Dietary"
	CategoryLifestyle = "Lifestyle"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Rule is one static recommendation template. A rule fires when the
// condition matches, the predicted level is at or above MinLevel, and (if
// set) TriggerFeature ranks among the top positive contributors.
type Rule struct {
	Condition      models.Condition `yaml:"condition"`
	MinLevel       models.RiskLevel `yaml:"min_level"`
	Category       string           `yaml:"category"`
	Priority       string           `yaml:"priority,omitempty"`
	TriggerFeature string           `yaml:"trigger_feature,omitempty"`
	Text           string           `yaml:"text"`
	Rationale      string           `yaml:"rationale,omitempty"`
}

// DefaultRules is the built-in table: conservative, evidence-based advice
// that emphasizes discussion with a healthcare provider. Table order is the
// output order, which keeps recommendation sets stable across runs.
func DefaultRules() []Rule {
	return []Rule{
		{
			Condition: models.ConditionB12,
			MinLevel:  models.RiskHigh,
			Category:  CategoryMedical,
			Text:      "Discuss B12 testing and possible supplementation with a healthcare professional. High-dose B12 supplements are available over-the-counter, but dosage should be clinically guided.",
			Rationale: "High predicted risk of B12 deficiency.",
		},
		{
			Condition: models.ConditionB12,
			MinLevel:  models.RiskModerate,
			Category:  CategoryDietary,
			Text:      "Increase B12-rich foods such as fortified cereals, dairy products, eggs, fish, and lean meats.",
			Rationale: "Vitamin B12 is primarily obtained from animal products and fortified foods.",
		},
		{
			Condition:      models.ConditionB12,
			MinLevel:       models.RiskModerate,
			Category:       CategoryMedical,
			TriggerFeature: "RIDAGEYR",
			Text:           "Ask a healthcare provider about age-related B12 absorption; absorption commonly declines with age.",
			Rationale:      "Age was a leading contributor to the predicted B12 risk.",
		},
		{
			Condition: models.ConditionIron,
			MinLevel:  models.RiskModerate,
			Category:  CategoryDietary,
			Text:      "Increase intake of iron-rich foods such as lean red meat, poultry, fish, legumes, dark leafy greens, and fortified cereals.",
			Rationale: "Elevated predicted risk of anemia or iron deficiency.",
		},
		{
			Condition:      models.ConditionIron,
			MinLevel:       models.RiskModerate,
			Category:       CategoryMedical,
			TriggerFeature: "RIAGENDR",
			Text:           "Consider discussing iron supplementation with a healthcare provider; supplementation should only start after clinical evaluation.",
			Rationale:      "Additional iron needs can occur due to menstrual blood loss.",
		},
		{
			Condition: models.ConditionIron,
			MinLevel:  models.RiskModerate,
			Category:  CategoryDietary,
			Priority:  PriorityMedium,
			Text:      "Enhance iron absorption by pairing vitamin C-rich foods such as citrus fruits with iron-rich meals.",
			Rationale: "Vitamin C improves non-heme iron absorption.",
		},
		{
			Condition: models.ConditionDiabetes,
			MinLevel:  models.RiskModerate,
			Category:  CategoryMedical,
			Text:      "Consult a healthcare provider for proper diabetes screening such as HbA1c or fasting glucose.",
			Rationale: "Demographic-only prediction has very limited accuracy for diabetes screening.",
		},
		{
			Condition:      models.ConditionDiabetes,
			MinLevel:       models.RiskModerate,
			Category:       CategoryLifestyle,
			TriggerFeature: "BMXBMI",
			Text:           "Engage in regular physical activity and follow a balanced diet to support healthy weight management.",
			Rationale:      "Body mass index was a leading contributor to the predicted diabetes risk.",
		},
	}
}

// LoadRules reads a replacement rule table from YAML and validates it.
func LoadRules(path string) ([]Rule, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []Rule
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for i, rule := range rules {
		if !rule.Condition.Valid() {
			return nil, fmt.Errorf("rule %d has unknown condition %q", i, rule.Condition)
		}
		if rule.MinLevel.Rank() < 0 {
			return nil, fmt.Errorf("rule %d has unknown min_level %q", i, rule.MinLevel)
		}
		if rule.Text == "" {
			return nil, fmt.Errorf("rule %d has empty text", i)
		}
	}
	return rules, nil
}
