package recommend

import (
	"fmt"

	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/nutriscan-ai/platform/pkg/profile"
)

// TopFeatureCount is how many leading positive contributors a trigger
// feature is matched against.
const TopFeatureCount = 5

// Engine derives recommendations from the static rule table. The table is
// never mutated per request; identical inputs always yield identical output
// in stable order.
type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Engine{rules: copied}
}

// Recommend returns the rule-table entries matching a condition and risk
// level, gated on the top positive contributors. No matching rule yields an
// empty set; absence of advice is valid output.
func (e *Engine) Recommend(condition models.Condition, level models.RiskLevel, topPositive []string) []models.Recommendation {
	out := []models.Recommendation{}
	for _, rule := range e.rules {
		if rule.Condition != condition {
			continue
		}
		if level.Rank() < rule.MinLevel.Rank() {
			continue
		}
		if rule.TriggerFeature != "" && !contains(topPositive, rule.TriggerFeature) {
			continue
		}
		priority := rule.Priority
		if priority == "" {
			priority = priorityForLevel(level)
		}
		out = append(out, models.Recommendation{
			Condition: condition,
			Category:  rule.Category,
			Priority:  priority,
			Text:      rule.Text,
			Rationale: rule.Rationale,
		})
	}
	return out
}

// Lifestyle produces the condition-independent entries appended to every
// result: BMI guidance, age-based screening, and a baseline dietary note.
func (e *Engine) Lifestyle(p profile.SubjectProfile) []models.Recommendation {
	out := []models.Recommendation{}

	bmi := p.BMI()
	if bmi < 18.5 {
		out = append(out, models.Recommendation{
			Category:  CategoryLifestyle,
			Priority:  PriorityMedium,
			Text:      "Consider speaking with a registered dietitian to develop a healthy weight-gain plan.",
			Rationale: fmt.Sprintf("BMI of %.1f is below the healthy range.", bmi),
		})
	} else if bmi > 25 {
		out = append(out, models.Recommendation{
			Category:  CategoryLifestyle,
			Priority:  PriorityMedium,
			Text:      "Engage in regular physical activity and follow a balanced diet to support healthy weight management.",
			Rationale: fmt.Sprintf("BMI of %.1f is above the healthy range.", bmi),
		})
	}

	if p.Age > 65 {
		out = append(out, models.Recommendation{
			Category:  CategoryMedical,
			Priority:  PriorityMedium,
			Text:      "Older adults may benefit from routine screening for vitamin D, B12, and iron status.",
			Rationale: "Nutrient absorption and dietary intake often change with age.",
		})
	}

	out = append(out, models.Recommendation{
		Category:  CategoryLifestyle,
		Priority:  PriorityLow,
		Text:      "Maintain a balanced diet with a variety of food groups.",
		Rationale: "Dietary diversity supports adequate nutrient intake.",
	})

	return out
}

func priorityForLevel(level models.RiskLevel) string {
	if level.Rank() >= models.RiskHigh.Rank() {
		return PriorityHigh
	}
	return PriorityMedium
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
