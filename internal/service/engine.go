package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"roomassist/internal/catalog"
	"roomassist/internal/model"
	"roomassist/internal/utils"
)

// Retriever is the similarity-search collaborator: given a free-text query
// it returns the top-k catalog summary lines by embedding similarity.
type Retriever interface {
	TopK(ctx context.Context, query string, k int) ([]string, error)
}

// Canned replies and oracle phrases.
const (
	greetingReply = "您好，我是一位飯店推薦助手，很高興為您服務！請問您有什麼住宿需求，我可以幫您推薦合適的房型喔～"
	fallbackReply = "你好，我是一個飯店推薦助手，目前只提供房型相關的建議喔！"

	// The reviewer signals "no change needed" with a sentence containing
	// this phrase; matching is substring, the model's wording drifts.
	reviewSatisfiedPhrase = "符合使用者需求"
)

const composeSystemPrompt = "你是一位專業且親切的飯店房型推薦助手，專門根據使用者的需求（例如：預算、風格、入住人數等）提供最合適的房型建議。\n\n" +
	"請依據提供的房型資料中，精選出「最符合使用者需求」的房型，最多列出 3 間房型" +
	"⚠️ 請注意推薦的房型**不可重複**，若重複則**刪除其中一個房型名稱和推薦理由**。\n" +
	"⚠️ 請**『務必只使用資料庫中提供的房型名稱，不可自行編造』。\n" +
	"⚠️ 回覆內容請使用**繁體中文**。\n" +
	"⚠️ 若使用者的問題與房型推薦無關，請親切回覆：「我是一個飯店推薦助手，目前只提供房型相關的建議喔！」\n" +
	"⚠️ 請在推薦理由中明確說明房型的實際價格，並根據使用者預算範圍正確描述：\n" +
	"  - 若價格在預算範圍內，請強調『符合預算』或『價格具有優勢』。\n" +
	"  - 嚴禁出現『雖然價格稍高』、『超出預算』等與實際價格不符的描述。\n" +
	"  - 若房型價格低於預算上限，請強調其價格優勢。\n" +
	"⚠️ 若房型未完全符合使用者需求（如面積、價格等），請明確說明『此房型未達到您的需求，但為最接近的選擇』，且不得出現誤導性語句。"

const reviewSystemPrompt = "你是一位專業的飯店房型審查助手。請根據使用者需求與模型原本的推薦內容，判斷是否『完全符合』使用者需求。\n" +
	"如果不符合，請回覆：『目前沒有完全符合的房型』\n" +
	"請務必使用資料庫中出現過的房型名稱，且回覆內容使用繁體中文。\n" +
	"若原本的推薦已經符合需求，則直接回覆：『推薦內容符合使用者需求，無需變更。』"

const autoRecommendSystemPrompt = "你是一位專業的飯店房型推薦助手，請根據資料庫內容，推薦一個最適合的房型，並只回傳一個 JSON 格式，欄位包含 name, price, area, features, style, maxOccupancy。" +
	"area、price、maxOccupancy只回傳數字，剩下內容請轉為「繁體中文」，不要有多餘說明。" +
	"請勿推薦與前次相同或相似的房型名稱，也不要與資料庫中已有的房型名稱重複。" +
	"房型名稱需能明確反映其特色（如特色設施、風格等），讓名稱與特色相對應。"

const autoRecommendMaxRetry = 5

// snapshot bundles the catalog state a query runs against. It is swapped
// wholesale on catalog change so in-flight queries keep a consistent view.
type snapshot struct {
	rooms     []model.Room
	styles    []string
	retriever Retriever
}

// Engine sequences the recommendation pipeline: intent classification,
// retrieval, constraint filtering, composition, review and dedup.
type Engine struct {
	llm  ChatClient
	topK int
	snap atomic.Pointer[snapshot]

	rngMu sync.Mutex
	rng   *rand.Rand // sampling source for the generic branch
}

// NewEngine creates an engine over the given catalog snapshot.
func NewEngine(llm ChatClient, rooms []model.Room, ret Retriever, topK int, rng *rand.Rand) *Engine {
	e := &Engine{llm: llm, topK: topK, rng: rng}
	e.Reload(rooms, ret)
	return e
}

// Reload swaps in a new catalog snapshot and retriever. In-flight queries
// keep working against the snapshot they started with.
func (e *Engine) Reload(rooms []model.Room, ret Retriever) {
	e.snap.Store(&snapshot{
		rooms:     rooms,
		styles:    catalog.Styles(rooms),
		retriever: ret,
	})
}

// Query answers one user message.
func (e *Engine) Query(ctx context.Context, question string) (*model.RecommendationResponse, error) {
	snap := e.snap.Load()

	label, err := ClassifyIntent(ctx, e.llm, question)
	if err != nil {
		return nil, fmt.Errorf("intent classification failed: %w", err)
	}

	switch MatchIntent(label) {
	case IntentGreeting:
		return &model.RecommendationResponse{
			Rooms:      map[string]model.RoomInfo{},
			Conclusion: greetingReply,
		}, nil

	case IntentGenericRecommend:
		return e.genericRecommend(snap), nil

	case IntentRoomRecommend:
		return e.recommend(ctx, snap, question)

	default:
		return &model.RecommendationResponse{
			Rooms:      map[string]model.RoomInfo{},
			Conclusion: fallbackReply,
		}, nil
	}
}

// recommend runs the constrained-retrieval branch.
func (e *Engine) recommend(ctx context.Context, snap *snapshot, question string) (*model.RecommendationResponse, error) {
	lines, err := snap.retriever.TopK(ctx, question, e.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	styleKeywords := ExtractStyleKeywords(question, snap.styles)
	lines = SortByStyleMatch(lines, styleKeywords)
	summary := strings.Join(lines, "\n")

	summary = FilterByPriceRange(summary, ExtractPriceRange(question))
	summary = FilterByAreaRange(summary, ExtractAreaRange(question))

	// An empty summary still goes to the composer: its prompt owns the
	// "no matching room" wording.
	conclusion, err := e.compose(ctx, question, summary)
	if err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}

	review, err := e.review(ctx, question, conclusion)
	if err != nil {
		return nil, fmt.Errorf("review failed: %w", err)
	}

	final := review
	if strings.Contains(review, reviewSatisfiedPhrase) {
		final = conclusion
	}
	final = RemoveDuplicateRoomNames(final)

	resp := &model.RecommendationResponse{
		Rooms:      map[string]model.RoomInfo{},
		Conclusion: final,
	}
	// Only catalog names make it into the structured response, whatever
	// the model wrote. Iteration order is catalog order.
	for _, room := range snap.rooms {
		if strings.Contains(final, room.Name) {
			resp.Rooms[room.Name] = room.Info()
		}
	}
	return resp, nil
}

// genericRecommend answers an unconstrained request by sampling up to three
// distinct rooms, skipping retrieval and the LLM entirely.
func (e *Engine) genericRecommend(snap *snapshot) *model.RecommendationResponse {
	n := len(snap.rooms)
	count := 3
	if n < count {
		count = n
	}

	e.rngMu.Lock()
	order := e.rng.Perm(n)
	e.rngMu.Unlock()

	var b strings.Builder
	b.WriteString("為您隨機推薦以下房型：\n\n")
	rooms := map[string]model.RoomInfo{}
	for i := 0; i < count; i++ {
		room := snap.rooms[order[i]]
		rooms[room.Name] = room.Info()
		fmt.Fprintf(&b, "房型名稱：%s\n推薦理由：價格 %d 元、面積 %d 坪、風格 %s、最多可住 %d 人，特色：%s。\n\n",
			room.Name, room.Price, room.Area, room.Style, room.MaxOccupancy, room.Features)
	}
	b.WriteString("結語：告訴我您的預算或喜好，我可以推薦更符合需求的房型喔～")

	return &model.RecommendationResponse{
		Rooms:      rooms,
		Conclusion: b.String(),
	}
}

// compose asks the model to pick and justify up to three rooms from the
// filtered summary.
func (e *Engine) compose(ctx context.Context, question, roomsSummary string) (string, error) {
	userPrompt := fmt.Sprintf("使用者需求：%s\n房型資料：%s\n\n"+
		"請根據上述資訊，推薦最符合使用者需求的房型，並給出推薦理由與結語。\n"+
		"回覆格式如下（每個房型請依照範例填寫）：\n\n"+
		"推薦房型：\n"+
		"房型名稱\n"+
		"推薦理由：...\n\n"+
		"房型名稱\n"+
		"推薦理由：...\n\n"+
		"房型名稱\n"+
		"推薦理由：...\n\n"+
		"結語：...", question, roomsSummary)
	return e.llm.Generate(ctx, composeSystemPrompt, userPrompt)
}

// review asks the model a second time whether the composed recommendation
// really satisfies the stated constraints.
func (e *Engine) review(ctx context.Context, question, composed string) (string, error) {
	userPrompt := fmt.Sprintf("使用者需求：%s\n\n模型原本推薦內容如下：\n%s", question, composed)
	return e.llm.Generate(ctx, reviewSystemPrompt, userPrompt)
}

// AutoRecommendRoom asks the model to invent a brand-new room record.
// Malformed JSON, missing fields and name collisions are retried up to
// autoRecommendMaxRetry times; exhaustion yields a nil room, not an error.
func (e *Engine) AutoRecommendRoom(ctx context.Context) (*model.Room, error) {
	snap := e.snap.Load()

	usedNames := make(map[string]bool, len(snap.rooms))
	for _, room := range snap.rooms {
		usedNames[room.Name] = true
	}

	for attempt := 0; attempt < autoRecommendMaxRetry; attempt++ {
		raw, err := e.llm.Generate(ctx, autoRecommendSystemPrompt, "請推薦一個房型，並只回傳 JSON 格式資料。")
		if err != nil {
			return nil, fmt.Errorf("room generation failed: %w", err)
		}

		var fields map[string]interface{}
		if err := utils.ParseAIJSON(raw, &fields); err != nil {
			continue
		}

		room, ok := roomFromFields(fields)
		if !ok {
			continue
		}
		if usedNames[room.Name] {
			continue
		}
		usedNames[room.Name] = true
		return &room, nil
	}

	return nil, nil
}

// roomFromFields validates a generated JSON object: all six fields present
// and non-empty, numbers possibly arriving as strings, occupancy through
// the Chinese-numeral parser.
func roomFromFields(fields map[string]interface{}) (model.Room, bool) {
	var room model.Room

	name, ok := fields["name"].(string)
	if !ok || name == "" {
		return room, false
	}
	price, ok := fieldAsInt(fields["price"])
	if !ok || price == 0 {
		return room, false
	}
	area, ok := fieldAsInt(fields["area"])
	if !ok || area == 0 {
		return room, false
	}
	features, ok := fields["features"].(string)
	if !ok || features == "" {
		return room, false
	}
	style, ok := fields["style"].(string)
	if !ok || style == "" {
		return room, false
	}
	occupancyRaw, ok := fields["maxOccupancy"]
	if !ok {
		return room, false
	}

	room.Name = name
	room.Price = price
	room.Area = area
	room.Features = features
	room.Style = style
	room.MaxOccupancy = utils.ParseMaxOccupancy(fmt.Sprint(occupancyRaw))
	return room, true
}

func fieldAsInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
