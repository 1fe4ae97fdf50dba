package story

import "strings"

// 已知故事类型，用于主题映射与分镜提示词选择
const (
	TypeScary              = "Scary"
	TypeMystery            = "Mystery"
	TypeBedtime            = "Bedtime"
	TypeInterestingHistory = "Interesting History"
	TypeUrbanLegends       = "Urban Legends"
	TypeMotivational       = "Motivational"
	TypeFunFacts           = "Fun Facts"
	TypeLongFormJokes      = "Long Form Jokes"
	TypeLifeProTips        = "Life Pro Tips"
	TypePhilosophy         = "Philosophy"
	TypeLove               = "Love"
	TypeScienceFiction     = "Science Fiction"
)

// StoryTypes 按匹配优先级排列
var StoryTypes = []string{
	TypeScary,
	TypeMystery,
	TypeBedtime,
	TypeInterestingHistory,
	TypeUrbanLegends,
	TypeMotivational,
	TypeFunFacts,
	TypeLongFormJokes,
	TypeLifeProTips,
	TypePhilosophy,
	TypeLove,
	TypeScienceFiction,
}

// MapTopic 将用户主题映射为故事类型
//
// 先精确匹配（忽略大小写），再看主题是否为某个类型的子串；都不命中时原样使用主题。
func MapTopic(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	if t == "" {
		return topic
	}
	for _, st := range StoryTypes {
		if t == strings.ToLower(st) {
			return st
		}
	}
	for _, st := range StoryTypes {
		if strings.Contains(strings.ToLower(st), t) {
			return st
		}
	}
	return strings.TrimSpace(topic)
}

// SkipsCharacters 信息类内容不需要角色外观
func SkipsCharacters(storyType string) bool {
	switch strings.ToLower(storyType) {
	case "life pro tips", "fun facts":
		return true
	}
	return false
}

func isType(storyType, want string) bool {
	return strings.EqualFold(storyType, want)
}
