package crisis

// 关键词按类别加权：immediate 5 / suicide 4 / selfHarm 3 / abuse 3 /
// hopelessness 2。匹配是朴素的子串包含，不做分词、不处理否定，
// 误报误漏是已知限制（上线前需用真实对话语料验证）。
var crisisKeywords = map[category][]string{
	catSuicide: {
		"kill myself", "end it all", "not worth living", "want to die",
		"suicide", "suicidal", "end my life", "take my own life",
		"better off dead", "can't go on", "no point living",
		"planning to die", "have a plan", "suicide plan",
	},
	catSelfHarm: {
		"hurt myself", "cut myself", "cutting", "self harm",
		"burn myself", "overdose", "pills", "self injury",
		"hurting myself", "harm myself", "cut my wrists",
	},
	catImmediate: {
		"right now", "tonight", "today", "this moment",
		"about to", "going to do it", "ready to",
		"can't wait", "now or never", "final decision",
	},
	catAbuse: {
		"hitting me", "abusing me", "threatens me", "hurts me",
		"won't let me leave", "controls everything", "scared to go home",
		"violence", "domestic violence", "abusive relationship",
	},
	catHopelessness: {
		"no hope", "hopeless", "nothing matters", "no future",
		"pointless", "why bother", "give up", "no way out",
		"trapped", "can't escape", "no one cares",
	},
}

type category int

const (
	catSuicide category = iota
	catSelfHarm
	catImmediate
	catAbuse
	catHopelessness
)

var categoryWeights = map[category]int{
	catSuicide:      4,
	catSelfHarm:     3,
	catImmediate:    5,
	catAbuse:        3,
	catHopelessness: 2,
}

// crossCategoryBonus is added when two or more categories match at once.
const crossCategoryBonus = 3
