package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"roomassist/internal/model"
)

// fakeLLM scripts the engine's three prompt roles and a reply queue for the
// auto-recommend flow.
type fakeLLM struct {
	intentLabel  string
	composeReply string
	reviewReply  string

	autoReplies []string
	autoCalls   int

	composePrompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	switch systemPrompt {
	case classifyPrompt:
		return f.intentLabel, nil
	case composeSystemPrompt:
		f.composePrompts = append(f.composePrompts, userPrompt)
		return f.composeReply, nil
	case reviewSystemPrompt:
		return f.reviewReply, nil
	case autoRecommendSystemPrompt:
		if f.autoCalls >= len(f.autoReplies) {
			return "", fmt.Errorf("no scripted reply for call %d", f.autoCalls)
		}
		reply := f.autoReplies[f.autoCalls]
		f.autoCalls++
		return reply, nil
	default:
		return "", fmt.Errorf("unexpected system prompt: %q", systemPrompt)
	}
}

type fakeRetriever struct {
	lines  []string
	called bool
	gotK   int
}

func (f *fakeRetriever) TopK(ctx context.Context, query string, k int) ([]string, error) {
	f.called = true
	f.gotK = k
	return f.lines, nil
}

func testRooms() []model.Room {
	return []model.Room{
		{ID: 1, Name: "工業風雙人房", Price: 2200, Area: 25, Features: "紅磚牆", Style: "工業風", MaxOccupancy: 2},
		{ID: 2, Name: "北歐風家庭房", Price: 3600, Area: 42, Features: "落地窗", Style: "北歐風", MaxOccupancy: 4},
		{ID: 3, Name: "經濟背包客房", Price: 900, Area: 12, Features: "置物櫃", Style: "", MaxOccupancy: 1},
		{ID: 4, Name: "日式禪風和室", Price: 2800, Area: 30, Features: "榻榻米", Style: "日式", MaxOccupancy: 3},
	}
}

func newTestEngine(llm *fakeLLM, ret Retriever) *Engine {
	return NewEngine(llm, testRooms(), ret, 10, rand.New(rand.NewSource(1)))
}

func summaryLines(rooms []model.Room) []string {
	lines := make([]string, len(rooms))
	for i, r := range rooms {
		lines[i] = r.SummaryLine()
	}
	return lines
}

func TestEngineQueryGreeting(t *testing.T) {
	llm := &fakeLLM{intentLabel: "打招呼"}
	ret := &fakeRetriever{}
	engine := newTestEngine(llm, ret)

	resp, err := engine.Query(context.Background(), "你好")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if resp.Conclusion != greetingReply {
		t.Errorf("conclusion = %q, want greeting reply", resp.Conclusion)
	}
	if len(resp.Rooms) != 0 {
		t.Errorf("expected no rooms, got %d", len(resp.Rooms))
	}
	if ret.called {
		t.Error("greeting branch must not hit the retriever")
	}
}

func TestEngineQueryFallback(t *testing.T) {
	llm := &fakeLLM{intentLabel: "其他"}
	engine := newTestEngine(llm, &fakeRetriever{})

	resp, err := engine.Query(context.Background(), "今天天氣如何")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if resp.Conclusion != fallbackReply {
		t.Errorf("conclusion = %q, want fallback reply", resp.Conclusion)
	}
	if len(resp.Rooms) != 0 {
		t.Errorf("expected no rooms, got %d", len(resp.Rooms))
	}
}

func TestEngineQueryGeneric(t *testing.T) {
	llm := &fakeLLM{intentLabel: "泛用推薦"}
	ret := &fakeRetriever{}
	engine := newTestEngine(llm, ret)

	resp, err := engine.Query(context.Background(), "隨便推薦幾間")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(resp.Rooms) != 3 {
		t.Fatalf("expected 3 sampled rooms, got %d", len(resp.Rooms))
	}

	catalogNames := map[string]bool{}
	for _, r := range testRooms() {
		catalogNames[r.Name] = true
	}
	for name := range resp.Rooms {
		if !catalogNames[name] {
			t.Errorf("sampled room %q is not in the catalog", name)
		}
		if !strings.Contains(resp.Conclusion, name) {
			t.Errorf("conclusion does not mention sampled room %q", name)
		}
	}
	if ret.called {
		t.Error("generic branch must not hit the retriever")
	}
	if len(llm.composePrompts) != 0 {
		t.Error("generic branch must not call the composer")
	}
}

func TestEngineQueryGenericSmallCatalog(t *testing.T) {
	llm := &fakeLLM{intentLabel: "泛用推薦"}
	rooms := testRooms()[:2]
	engine := NewEngine(llm, rooms, &fakeRetriever{}, 10, rand.New(rand.NewSource(1)))

	resp, err := engine.Query(context.Background(), "有什麼推薦的")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(resp.Rooms) != 2 {
		t.Errorf("expected all 2 rooms when catalog is small, got %d", len(resp.Rooms))
	}
}

func TestEngineQueryRecommend(t *testing.T) {
	llm := &fakeLLM{
		intentLabel: "房型推薦",
		composeReply: "推薦房型：\n房型名稱：工業風雙人房\n推薦理由：風格與預算都符合。\n\n" +
			"結語：祝您入住愉快。",
		reviewReply: "推薦內容符合使用者需求，無需變更。",
	}
	ret := &fakeRetriever{lines: summaryLines(testRooms())}
	engine := newTestEngine(llm, ret)

	resp, err := engine.Query(context.Background(), "我想要工業風的雙人房")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	if !ret.called || ret.gotK != 10 {
		t.Errorf("retriever called=%v k=%d, want called with k=10", ret.called, ret.gotK)
	}
	if resp.Conclusion != llm.composeReply {
		t.Errorf("satisfied review must keep the composed text, got %q", resp.Conclusion)
	}
	if len(resp.Rooms) != 1 {
		t.Fatalf("expected exactly 1 room, got %d: %v", len(resp.Rooms), resp.Rooms)
	}
	info, ok := resp.Rooms["工業風雙人房"]
	if !ok {
		t.Fatal("expected 工業風雙人房 in response rooms")
	}
	if info.Price != 2200 || info.Area != 25 || info.MaxOccupancy != 2 {
		t.Errorf("room info = %+v, want catalog values", info)
	}
}

func TestEngineQueryRecommendMultipleRooms(t *testing.T) {
	llm := &fakeLLM{
		intentLabel: "房型推薦",
		composeReply: "房型名稱：工業風雙人房\n推薦理由：好\n" +
			"房型名稱：北歐風家庭房\n推薦理由：棒\n" +
			"結語：歡迎入住",
		reviewReply: "推薦內容符合使用者需求，無需變更。",
	}
	ret := &fakeRetriever{lines: summaryLines(testRooms())}
	engine := newTestEngine(llm, ret)

	resp, err := engine.Query(context.Background(), "推薦兩間不同風格的房型")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if resp.Conclusion != llm.composeReply {
		t.Errorf("conclusion = %q, want the composed text verbatim", resp.Conclusion)
	}
	if len(resp.Rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d: %v", len(resp.Rooms), resp.Rooms)
	}
	for _, name := range []string{"工業風雙人房", "北歐風家庭房"} {
		if _, ok := resp.Rooms[name]; !ok {
			t.Errorf("expected %q in response rooms", name)
		}
	}
}

func TestEngineQueryRecommendReviewOverride(t *testing.T) {
	llm := &fakeLLM{
		intentLabel:  "房型推薦",
		composeReply: "房型名稱：北歐風家庭房\n推薦理由：空間寬敞。",
		reviewReply:  "目前沒有完全符合的房型",
	}
	ret := &fakeRetriever{lines: summaryLines(testRooms())}
	engine := newTestEngine(llm, ret)

	resp, err := engine.Query(context.Background(), "十人的總統套房")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if resp.Conclusion != "目前沒有完全符合的房型" {
		t.Errorf("unsatisfied review must replace the conclusion, got %q", resp.Conclusion)
	}
	if len(resp.Rooms) != 0 {
		t.Errorf("expected no rooms, got %v", resp.Rooms)
	}
}

func TestEngineQueryRecommendIgnoresFabricatedNames(t *testing.T) {
	llm := &fakeLLM{
		intentLabel:  "房型推薦",
		composeReply: "房型名稱：夢幻城堡房\n推薦理由：這間不存在。",
		reviewReply:  "推薦內容符合使用者需求，無需變更。",
	}
	ret := &fakeRetriever{lines: summaryLines(testRooms())}
	engine := newTestEngine(llm, ret)

	resp, err := engine.Query(context.Background(), "有城堡主題的房間嗎")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(resp.Rooms) != 0 {
		t.Errorf("fabricated names must not appear in rooms, got %v", resp.Rooms)
	}
}

func TestEngineQueryRecommendFiltersSummary(t *testing.T) {
	llm := &fakeLLM{
		intentLabel:  "房型推薦",
		composeReply: "房型名稱：經濟背包客房\n推薦理由：價格實惠。",
		reviewReply:  "推薦內容符合使用者需求，無需變更。",
	}
	ret := &fakeRetriever{lines: summaryLines(testRooms())}
	engine := newTestEngine(llm, ret)

	_, err := engine.Query(context.Background(), "我要1000元以下的房型")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	if len(llm.composePrompts) != 1 {
		t.Fatalf("expected 1 compose call, got %d", len(llm.composePrompts))
	}
	prompt := llm.composePrompts[0]
	if !strings.Contains(prompt, "名稱:經濟背包客房") {
		t.Error("compose prompt should keep the room within budget")
	}
	if strings.Contains(prompt, "名稱:工業風雙人房") || strings.Contains(prompt, "名稱:北歐風家庭房") {
		t.Errorf("compose prompt should not contain rooms over budget:\n%s", prompt)
	}
}

func TestEngineAutoRecommendRoomSuccess(t *testing.T) {
	llm := &fakeLLM{autoReplies: []string{
		`{"name": "森林樹屋房", "price": 4200, "area": 35, "features": "樹屋造型", "style": "自然風", "maxOccupancy": "3"}`,
	}}
	engine := newTestEngine(llm, &fakeRetriever{})

	room, err := engine.AutoRecommendRoom(context.Background())
	if err != nil {
		t.Fatalf("AutoRecommendRoom returned error: %v", err)
	}
	if room == nil {
		t.Fatal("expected a room, got nil")
	}
	if room.Name != "森林樹屋房" || room.Price != 4200 || room.MaxOccupancy != 3 {
		t.Errorf("room = %+v, want parsed values", room)
	}
}

func TestEngineAutoRecommendRoomRetriesDuplicateName(t *testing.T) {
	llm := &fakeLLM{autoReplies: []string{
		`{"name": "工業風雙人房", "price": 2000, "area": 20, "features": "重複", "style": "工業風", "maxOccupancy": 2}`,
		`{"name": "星空帳篷房", "price": 3000, "area": 30, "features": "觀星天窗", "style": "露營風", "maxOccupancy": 4}`,
	}}
	engine := newTestEngine(llm, &fakeRetriever{})

	room, err := engine.AutoRecommendRoom(context.Background())
	if err != nil {
		t.Fatalf("AutoRecommendRoom returned error: %v", err)
	}
	if room == nil || room.Name != "星空帳篷房" {
		t.Fatalf("expected the second, non-colliding room, got %+v", room)
	}
	if llm.autoCalls != 2 {
		t.Errorf("expected 2 generation calls, got %d", llm.autoCalls)
	}
}

func TestEngineAutoRecommendRoomRetriesBadPayloads(t *testing.T) {
	llm := &fakeLLM{autoReplies: []string{
		"這不是 JSON",
		`{"name": "缺欄位房", "price": 2000}`,
		`{"name": "免費房", "price": 0, "area": 20, "features": "免費", "style": "現代風", "maxOccupancy": 2}`,
		`{"name": "溫泉湯屋", "price": 5200, "area": 40, "features": "私人溫泉", "style": "日式", "maxOccupancy": 2}`,
	}}
	engine := newTestEngine(llm, &fakeRetriever{})

	room, err := engine.AutoRecommendRoom(context.Background())
	if err != nil {
		t.Fatalf("AutoRecommendRoom returned error: %v", err)
	}
	if room == nil || room.Name != "溫泉湯屋" {
		t.Fatalf("expected the first valid room, got %+v", room)
	}
	if llm.autoCalls != 4 {
		t.Errorf("expected 4 generation calls, got %d", llm.autoCalls)
	}
}

func TestEngineAutoRecommendRoomExhaustsRetries(t *testing.T) {
	llm := &fakeLLM{autoReplies: []string{
		"垃圾輸出", "垃圾輸出", "垃圾輸出", "垃圾輸出", "垃圾輸出", "垃圾輸出",
	}}
	engine := newTestEngine(llm, &fakeRetriever{})

	room, err := engine.AutoRecommendRoom(context.Background())
	if err != nil {
		t.Fatalf("AutoRecommendRoom returned error: %v", err)
	}
	if room != nil {
		t.Errorf("expected nil room after exhausting retries, got %+v", room)
	}
	if llm.autoCalls != autoRecommendMaxRetry {
		t.Errorf("expected exactly %d attempts, got %d", autoRecommendMaxRetry, llm.autoCalls)
	}
}

func TestEngineReloadSwapsSnapshot(t *testing.T) {
	llm := &fakeLLM{intentLabel: "泛用推薦"}
	engine := newTestEngine(llm, &fakeRetriever{})

	newRooms := []model.Room{
		{ID: 1, Name: "全新套房", Price: 1000, Area: 20, Features: "新", Style: "現代風", MaxOccupancy: 2},
	}
	engine.Reload(newRooms, &fakeRetriever{})

	resp, err := engine.Query(context.Background(), "隨便推薦")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(resp.Rooms) != 1 {
		t.Fatalf("expected 1 room after reload, got %d", len(resp.Rooms))
	}
	if _, ok := resp.Rooms["全新套房"]; !ok {
		t.Errorf("expected reloaded catalog to be used, got %v", resp.Rooms)
	}
}
