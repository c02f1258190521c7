// Package analysis maps computed scores to the canned findings shown on a
// report. The overall-score bands here (80/60/30) are coarser than the tier
// thresholds in scoring and the per-dimension triggers are independent of
// both; the three scales are intentionally not unified.
package analysis

import (
	"github.com/amourisk/amourisk/internal/bank"
	"github.com/amourisk/amourisk/internal/model"
)

// Generate returns the findings for an overall score and the per-dimension
// scores. Exactly one overall band contributes a key risk, a suggestion and
// a piece of relationship advice; dimension triggers contribute zero or more
// behavior patterns on top.
func Generate(overall int, perDimension map[string]int) model.AnalysisFindings {
	f := model.AnalysisFindings{
		KeyRisks:           []string{},
		BehaviorPatterns:   []string{},
		Suggestions:        []string{},
		RelationshipAdvice: []string{},
	}

	switch {
	case overall >= 80:
		f.KeyRisks = append(f.KeyRisks, "风险极高，存在明显的捞女行为模式")
		f.Suggestions = append(f.Suggestions, "建议立即停止经济投入，重新评估关系")
		f.RelationshipAdvice = append(f.RelationshipAdvice, "考虑结束关系，避免更大损失")
	case overall >= 60:
		f.KeyRisks = append(f.KeyRisks, "高风险，存在较多捞女特征")
		f.Suggestions = append(f.Suggestions, "建议设置明确的经济边界")
		f.RelationshipAdvice = append(f.RelationshipAdvice, "保持警惕，观察后续行为")
	case overall >= 30:
		f.KeyRisks = append(f.KeyRisks, "中等风险，存在一些值得关注的信号")
		f.Suggestions = append(f.Suggestions, "建议保持观察，注意经济投入")
		f.RelationshipAdvice = append(f.RelationshipAdvice, "可以继续交往，但需保持理性")
	default:
		f.KeyRisks = append(f.KeyRisks, "风险较低，关系相对健康")
		f.Suggestions = append(f.Suggestions, "建议继续保持良好沟通")
		f.RelationshipAdvice = append(f.RelationshipAdvice, "可以正常发展关系")
	}

	if perDimension[bank.DimensionEconomic] >= 70 {
		f.BehaviorPatterns = append(f.BehaviorPatterns, "经济索取行为明显，经常要求礼物或红包")
	}
	if perDimension[bank.DimensionValues] >= 60 {
		f.BehaviorPatterns = append(f.BehaviorPatterns, "价值观存在偏差，可能过于注重物质条件")
	}
	if perDimension[bank.DimensionPurpose] >= 50 {
		f.BehaviorPatterns = append(f.BehaviorPatterns, "关系目的性较强，可能更关注经济条件")
	}

	return f
}

// TierColor returns the display color for a tier.
func TierColor(tier model.RiskTier) string {
	switch tier {
	case model.TierLow:
		return "#52c41a"
	case model.TierMedium:
		return "#faad14"
	case model.TierHigh:
		return "#fa8c16"
	case model.TierVeryHigh:
		return "#f5222d"
	default:
		return "#52c41a"
	}
}

// TierDescription returns the one-line description for a tier.
func TierDescription(tier model.RiskTier) string {
	switch tier {
	case model.TierLow:
		return "关系相对健康，建议保持观察"
	case model.TierMedium:
		return "存在一定风险，建议谨慎对待"
	case model.TierHigh:
		return "风险较高，建议加强防范"
	case model.TierVeryHigh:
		return "风险极高，建议立即采取措施"
	default:
		return "关系相对健康，建议保持观察"
	}
}
