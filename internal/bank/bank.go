// Package bank holds the static question battery: four weighted dimensions of
// scored questions plus the base-info questions answered before them. The
// bank is compiled in and read-only; the flattened traversal order is fixed
// at init and never re-derived.
package bank

import (
	"fmt"

	"github.com/amourisk/amourisk/internal/model"
)

// MaxOptionScore is the highest score any option in the bank carries, used as
// the per-question normalization denominator.
const MaxOptionScore = 4

// Option scales shared by the questions.
var (
	agreementScale = []model.Option{
		{Label: "非常同意", Score: 4},
		{Label: "同意", Score: 3},
		{Label: "不一定", Score: 2},
		{Label: "不同意", Score: 1},
		{Label: "非常不同意", Score: 0},
	}
	frequencyScale = []model.Option{
		{Label: "总是", Score: 4},
		{Label: "经常", Score: 3},
		{Label: "有时", Score: 2},
		{Label: "偶尔", Score: 1},
		{Label: "从不", Score: 0},
	}
	judgmentScale = []model.Option{
		{Label: "有", Score: 4},
		{Label: "可能有", Score: 3},
		{Label: "没有", Score: 0},
		{Label: "不知道", Score: 1},
	}
)

// Scales returns the declared option scales keyed by name. The battery uses
// the agreement scale throughout; the others are part of the bank data.
func Scales() map[string][]model.Option {
	return map[string][]model.Option{
		"scale5":    agreementScale,
		"frequency": frequencyScale,
		"judgment":  judgmentScale,
	}
}

const (
	// DimensionAppearance 外在特征与社交展示
	DimensionAppearance = "外在特征与社交展示"
	// DimensionEconomic 经济行为与心理策略
	DimensionEconomic = "经济行为与心理策略"
	// DimensionValues 价值观与社交圈
	DimensionValues = "价值观与社交圈"
	// DimensionPurpose 关系推进与目的
	DimensionPurpose = "关系推进与目的"
)

func q(id, text, dimension string) model.Question {
	return model.Question{ID: id, Text: text, DimensionName: dimension, Options: agreementScale}
}

var dimensions = []model.Dimension{
	{
		Name:   DimensionAppearance,
		Weight: 0.2,
		Questions: []model.Question{
			q("appearance_1", "她的朋友圈几乎全是精致摆拍、奢侈品、高端场所，几乎没有生活气息。", DimensionAppearance),
			q("appearance_2", "她的穿搭风格高度统一，偏爱“小香风”或明显模仿名媛风格。", DimensionAppearance),
			q("appearance_3", "她的外貌明显经过医美或整形，且常提及相关话题。", DimensionAppearance),
			q("appearance_4", "她总是做精致美甲，指甲很长，似乎从不从事体力劳动。", DimensionAppearance),
			q("appearance_5", "她的社交账号头像、背景、签名都经过精心设计，营造“高级感”。", DimensionAppearance),
		},
	},
	{
		Name:   DimensionEconomic,
		Weight: 0.4,
		Questions: []model.Question{
			q("economic_1", "她经常暗示或直接要求你送礼物、发红包、买奢侈品。", DimensionEconomic),
			q("economic_2", "她会因为小事生气，并暗示需要补偿才能和好。", DimensionEconomic),
			q("economic_3", "她会在你犯错（即使是小事）时放大情绪，让你内疚。", DimensionEconomic),
			q("economic_4", "她会在你事业忙时说“你陪我的时间太少”，并索要补偿。", DimensionEconomic),
			q("economic_5", "她经常说自己“过去被伤害”，激发你的保护欲和付出欲。", DimensionEconomic),
			q("economic_6", "她会在你表现出犹豫时，用“你不爱我”来施压。", DimensionEconomic),
			q("economic_7", "她总是能精准迎合你的话题，让你觉得“她非常懂你”。", DimensionEconomic),
			q("economic_8", "她会在初期主动为你买单或送你小礼物，让你觉得她“与众不同”。", DimensionEconomic),
			q("economic_9", "她经常因小事生气（如不说晚安、记不住纪念日），并让你感到内疚。", DimensionEconomic),
			q("economic_10", "她常以“没有安全感”“未来不确定”为由，暗示你应给予经济保障。", DimensionEconomic),
			q("economic_11", "她善于激发你的愧疚感，并引导你通过金钱或礼物来补偿。", DimensionEconomic),
			q("economic_12", "她认为“男人爱女人就要舍得为她花钱”是理所当然的。", DimensionEconomic),
		},
	},
	{
		Name:   DimensionValues,
		Weight: 0.25,
		Questions: []model.Question{
			q("values_1", "她身边经常有愿意为她无条件付出的男性朋友。", DimensionValues),
			q("values_2", "她对自己的职业或收入描述模糊，却生活奢侈，收支明显不符。", DimensionValues),
			q("values_3", "她曾表达过“女人应该靠男人实现阶层跨越”之类的观点。", DimensionValues),
			q("values_4", "她的社交圈中多数是“名媛”风格女性，且常交流如何吸引男性。", DimensionValues),
			q("values_5", "她喜欢在高端场所（如高尔夫、滑雪、拍卖会）互动，但似乎并无相应消费能力。", DimensionValues),
			q("values_6", "她对自己的过去经历描述模糊，或常有矛盾之处。", DimensionValues),
			q("values_7", "她几乎没有长期稳定的女性朋友，异性朋友远多于同性。", DimensionValues),
			q("values_8", "她常以“创业”“自媒体老板”等身份自称，但实际业务模糊。", DimensionValues),
		},
	},
	{
		Name:   DimensionPurpose,
		Weight: 0.15,
		Questions: []model.Question{
			q("purpose_1", "她在你遇到经济困难时态度明显冷淡。", DimensionPurpose),
			q("purpose_2", "她曾有过“闪婚闪离”或“高额彩礼纠纷”等历史。", DimensionPurpose),
			q("purpose_3", "你身边的朋友或家人曾提醒你“她可能目的不纯”。", DimensionPurpose),
			q("purpose_4", "她对你的朋友或家人不太感兴趣，甚至回避见面。", DimensionPurpose),
			q("purpose_5", "你感觉她对你的兴趣，与你的经济能力高度相关。", DimensionPurpose),
			q("purpose_6", "她对你的事业、资产、家庭背景的兴趣远大于你的人格或情感。", DimensionPurpose),
			q("purpose_7", "她会趁感情热度最高、你对她最有好感时，向你提出远超当前关系阶段的重大财务决策（如买房、投资），这像是一种“服从性测试”。", DimensionPurpose),
			q("purpose_8", "在你们感情基础尚浅时，她是否就已经开始与你详细规划需要你承担重大资金的未来（如买房、投资），并让你感到压力？", DimensionPurpose),
		},
	},
}

var baseInfoQuestions = []model.BaseInfoQuestion{
	{
		ID:      "base_age",
		Text:    "您的年龄是？",
		Answers: []string{"18-24岁", "25-30岁", "31-40岁", "41岁以上"},
	},
	{
		ID:      "base_income",
		Text:    "您目前的年收入大致范围是？",
		Answers: []string{"10万以下", "10万-20万", "20万-50万", "50万-100万", "100万以上"},
	},
	{
		ID:      "base_relation",
		Text:    "您与她目前的关系状态是？",
		Answers: []string{"刚刚认识，处于了解阶段", "正在约会/暧昧中", "已确立恋爱关系", "已同居或已婚"},
	},
	{
		ID:      "base_duration",
		Text:    "你们认识多久了？",
		Answers: []string{"少于1个月", "1-6个月", "6个月-2年", "2年以上"},
	},
	{
		ID:      "base_meet",
		Text:    "你们主要通过什么途径认识的？",
		Answers: []string{"社交软件（如探探、Soul等）", "线下社交活动（如聚会、酒吧、兴趣班）", "工作或业务往来", "朋友介绍", "其他 ________"},
	},
	{
		ID:          "base_economic",
		Text:        "在相处过程中，您是否为对方有过以下经济投入？（可多选）",
		Answers:     []string{"日常吃饭、娱乐等消费", "红包、转账（非特定节日）", "贵重礼物（如包包、首饰、电子产品）", "共同旅行费用（主要由您承担）", "支持她的事业/生意", "尚无重大经济投入"},
		MultiSelect: true,
	},
	{
		ID:      "base_pressure",
		Text:    "您是否曾因这段关系感到经济压力？",
		Answers: []string{"完全没有压力", "略有压力但可承受", "有明显经济压力", "已严重影响个人财务状况"},
	},
	{
		ID:      "base_friend",
		Text:    "您身边的朋友或家人对她普遍的看法是？",
		Answers: []string{"大多数表示认可和支持", "看法不一，有赞成的也有提醒我小心的", "大多数人曾明确提醒或反对我们交往", "我尚未将她介绍给我的核心社交圈"},
	},
}

// Precomputed at init so cursor logic always has the flattened order
// available synchronously.
var (
	allQuestions []model.Question
	questionByID map[string]model.Question
	dimByName    map[string]model.Dimension
)

func init() {
	questionByID = make(map[string]model.Question)
	dimByName = make(map[string]model.Dimension, len(dimensions))
	for _, d := range dimensions {
		dimByName[d.Name] = d
		for _, question := range d.Questions {
			if _, dup := questionByID[question.ID]; dup {
				panic(fmt.Sprintf("bank: duplicate question id %s", question.ID))
			}
			questionByID[question.ID] = question
			allQuestions = append(allQuestions, question)
		}
	}
}

// Dimensions returns the ordered dimension list.
func Dimensions() []model.Dimension {
	return dimensions
}

// DimensionByName returns the dimension with the given name.
func DimensionByName(name string) (model.Dimension, bool) {
	d, ok := dimByName[name]
	return d, ok
}

// AllQuestions returns every scored question in traversal order: dimension
// order, then question order within each dimension.
func AllQuestions() []model.Question {
	return allQuestions
}

// QuestionByID returns a scored question by id.
func QuestionByID(id string) (model.Question, bool) {
	question, ok := questionByID[id]
	return question, ok
}

// TotalQuestions returns the number of scored questions.
func TotalQuestions() int {
	return len(allQuestions)
}

// BaseInfoQuestions returns the ordered base-info battery.
func BaseInfoQuestions() []model.BaseInfoQuestion {
	return baseInfoQuestions
}

// BaseInfoQuestionByID returns a base-info question by id.
func BaseInfoQuestionByID(id string) (model.BaseInfoQuestion, bool) {
	for _, question := range baseInfoQuestions {
		if question.ID == id {
			return question, true
		}
	}
	return model.BaseInfoQuestion{}, false
}
