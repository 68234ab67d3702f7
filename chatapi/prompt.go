package chatapi

import (
	"fmt"
	"strings"

	"github.com/nathoo/kaiwa/protocol"
	"github.com/nathoo/kaiwa/types"
)

// replySchema is the JSON shape the model is told to answer with. Keys
// match protocol.Response.
const replySchema = `{
  "reply": "キャラクターの日本語のセリフ",
  "replyReading": "セリフのひらがなの読み",
  "translation": "English translation of the line",
  "questProgress": {
    "questId": "達成したクエストのID または null",
    "completed": true/false,
    "hint": "次のヒント（任意）"
  },
  "moodChange": {
    "mood": "happy | neutral | annoyed | angry | sad",
    "reason": "気分が変わった理由",
    "refuseService": true/false
  },
  "feedback": {
    "isNatural": true/false,
    "corrections": ["修正案（あれば）"],
    "betterExpression": "より自然な言い方（あれば）",
    "newVocab": [{"word": "単語", "reading": "よみ", "meaning": "English meaning"}]
  }
}`

// moodGuidance tells the model how the current mood should colour the reply.
var moodGuidance = map[types.Mood]string{
	types.MoodHappy:   "今は機嫌がいいです。明るく親切に話してください。",
	types.MoodNeutral: "今は普通の気分です。",
	types.MoodAnnoyed: "今は少しイライラしています。返事は短く、そっけなくしてください。",
	types.MoodAngry:   "今は怒っています。冷たく、きつい口調で話してください。",
	types.MoodSad:     "今は悲しい気分です。元気のない話し方をしてください。",
}

// SystemPrompt builds the instruction block for one exchange.
func SystemPrompt(req protocol.Request) string {
	var b strings.Builder

	b.WriteString("あなたは日本語学習ゲームのキャラクターです。\n\n")

	b.WriteString("【あなたの情報】\n")
	fmt.Fprintf(&b, "名前: %s\n", req.CharacterName)
	fmt.Fprintf(&b, "役割: %s\n", req.CharacterRole)
	fmt.Fprintf(&b, "性格: %s\n\n", req.CharacterPersona)

	fmt.Fprintf(&b, "【場所】%s\n\n", req.RoomName)

	b.WriteString("【今の気分】\n")
	mood := req.CharacterMood
	if mood == "" {
		mood = types.MoodNeutral
	}
	guide, ok := moodGuidance[mood]
	if !ok {
		guide = moodGuidance[types.MoodNeutral]
	}
	fmt.Fprintf(&b, "%s (%s)\n", guide, mood)
	if req.RefuseService {
		b.WriteString("あなたはプレイヤーへの対応を拒否しています。プレイヤーがきちんと謝るまで、クエストは達成させないでください。\n")
	}
	b.WriteString("\n")

	b.WriteString("【アクティブクエスト】\n")
	if len(req.ActiveQuests) == 0 {
		b.WriteString("なし\n")
	}
	for _, q := range req.ActiveQuests {
		fmt.Fprintf(&b, "- [%s] %s (id: %s): %s\n", q.DifficultyTier, q.Title, q.ID, q.ClearCondition)
	}
	b.WriteString("\n")

	b.WriteString("【ルール】\n")
	b.WriteString("1. 必ず日本語で自然に返答してください。キャラクターになりきってください。\n")
	b.WriteString("2. プレイヤーの日本語レベルに合わせて話してください。\n")
	b.WriteString("3. 以下のJSON形式だけで回答してください:\n\n")
	b.WriteString(replySchema)
	b.WriteString("\n\n")
	b.WriteString("プレイヤーの発言がクエストの達成条件を満たしたら、questProgress.completedをtrueにして、対応するquestIdを入れてください。\n")
	b.WriteString("文法的に正しくなくても、意図が伝わればクエストは達成できます。\n")
	b.WriteString("プレイヤーの態度で気分が変わったときだけmoodChangeを入れてください。変わらなければmoodChangeは省略してください。\n")
	b.WriteString("フィードバックでは、より自然な表現を提案してください。")

	return b.String()
}

// chatMessage is one entry of an OpenAI-style messages array.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildMessages orders the conversation as system, history, then the new
// player line.
func buildMessages(req protocol.Request) []chatMessage {
	msgs := make([]chatMessage, 0, len(req.History)+2)
	msgs = append(msgs, chatMessage{Role: "system", Content: SystemPrompt(req)})
	for _, t := range req.History {
		msgs = append(msgs, chatMessage{Role: t.Role, Content: t.Content})
	}
	return append(msgs, chatMessage{Role: protocol.RoleUser, Content: req.PlayerMessage})
}
