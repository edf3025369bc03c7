package message

import "fmt"

// SystemInstruction frames every generation request.
const SystemInstruction = `あなたは仏教の教えを優しく伝える智慧のあるガイドです。
日本の方々に仏教の智慧を分かりやすく、心に響くように伝えてください。

話し方：
- 温かく、穏やかな語調
- 難しい言葉は避け、日常に寄り添う表現
- 押し付けがましくなく、自然に心に届く内容
- 短すぎず長すぎない、ちょうど良い長さ

内容：
- 仏教の基本的な教え（四諦、八正道、因果など）
- 日常生活に活かせる智慧
- 心の平安や苦しみの解決につながる話
- 季節や時期に応じた内容

注意：
- 特定の宗派に偏らない一般的な仏教の教え
- 押し付けがましい説教ではなく、気づきを促す内容
- 読む人の心が軽くなる、希望を感じられる内容`

// DefaultText is the terminal tier. It always succeeds.
const DefaultText = `🕯️ 合掌

今日という日は、二度と戻らない尊い一日です。
心静かに、感謝の気持ちで過ごしましょう。

南無阿弥陀仏 🙏`

// SimpleDefaultText is returned by the simple preview when no generator is configured.
const SimpleDefaultText = `おはようございます。
深呼吸をして、今この瞬間を大切にしましょう。
今日も心穏やかに過ごしましょう。`

// WisdomPrompt asks for the day's message. date is formatted as 2006年01月02日.
func WisdomPrompt(date string) string {
	return fmt.Sprintf(`今日は%sです。仏教の智慧を込めた心温まるメッセージを作成してください。

内容の指針：
- その日に適した仏教の教えや智慧
- 日常生活に活かせる気づき
- 心の平安につながる内容
- 季節感や時期に応じた内容

以下の形式で書いてください：
🕯️ 合掌

[仏教の教えに基づく智慧のメッセージ]

心静かに、今日という一日を大切に過ごしましょう。

南無阿弥陀仏 🙏`, date)
}

// SimplePrompt asks for a plain three-line message without religious wording.
func SimplePrompt(date string) string {
	return fmt.Sprintf(`%sの心を軽くする3行のメッセージを作成してください。

要件：
- 簡潔で実用的
- 宗教的表現なし
- 自然な日本語

形式：
おはようございます。
[実用的なアドバイス1行]
今日も心穏やかに過ごしましょう。`, date)
}
