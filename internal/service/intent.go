package service

import (
	"context"
	"log"
	"strings"
)

// Intent is the bucket a user utterance falls into.
type Intent int

const (
	// IntentOther covers everything unrelated to room recommendation.
	IntentOther Intent = iota
	// IntentGreeting is chitchat like 你好 / 哈囉.
	IntentGreeting
	// IntentGenericRecommend is a recommendation request with no concrete
	// constraints ("有什麼推薦的？").
	IntentGenericRecommend
	// IntentRoomRecommend is a recommendation request with constraints,
	// including implicit feature-presence questions ("有工業風嗎？").
	IntentRoomRecommend
)

const classifyPrompt = `請判斷以下使用者輸入屬於哪一種類型：
1. 房型推薦需求（包含價格、風格、幾人房、設備、是否有某項特色等）
2. 一般打招呼或聊天（如：你好、哈囉、在嗎）
3. 泛用推薦需求（沒有提出任何具體條件的推薦請求，例如：有什麼推薦的？隨便推薦幾間）
4. 其他與房型無關的問題（例如問天氣、問你是誰）

使用者可能會詢問是否有某種房型（例如：是否有工業風？是否有浴缸？），這也屬於房型推薦。
請你只回答：'房型推薦'、'打招呼'、'泛用推薦' 或 '其他'`

// ClassifyIntent asks the language model which bucket the question falls
// into. Single best-effort call, no retry; the raw label goes through
// MatchIntent afterwards.
func ClassifyIntent(ctx context.Context, llm ChatClient, question string) (string, error) {
	label, err := llm.Generate(ctx, classifyPrompt, question)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(label), nil
}

// MatchIntent maps the model's free-text label to an Intent. The model's
// output format is not strictly constrained, so this is substring matching
// in precedence order: 打招呼, then 泛用推薦, then 房型推薦. A label
// carrying both recommendation words means the generic bucket.
func MatchIntent(label string) Intent {
	switch {
	case strings.Contains(label, "打招呼"):
		return IntentGreeting
	case strings.Contains(label, "泛用推薦"):
		return IntentGenericRecommend
	case strings.Contains(label, "房型推薦"):
		return IntentRoomRecommend
	default:
		if label != "" && label != "其他" {
			log.Printf("Warning: unrecognized intent label %q, treating as 其他", label)
		}
		return IntentOther
	}
}
