package ai

import "fmt"

const probePrompt = "test"

const analysisPrompt = `あなたはサボさんの脳OSアシスタントです。
サボさんが投げた言葉を解析し、以下のJSON形式で返してください。

入力テキスト: %q

【判定基準】
1. category（7種類）:
   - work: 作業系（ブログ、せどり、経理、編集、ツール開発、仕事）
   - idea: ひらめき系（閃いた、作りたい、構想、アイデア）
   - life: 日常系（体調、家事、買い物、連絡）
   - emotion: 感情系（落ち込んだ、嬉しい、頭パンク、疲れた、だるい）
   - mind: 内省系（気づき、書きたい、学び、振り返り）
   - system: OS管理系（タスク管理、OS改善、設計、要件定義）
   - other: 分類不可

2. summary: やるべきこと・テーマだけを10〜20文字の名詞句で。
   時間表現（今日、明日）、口癖（あー、なんか、まじで）、言い訳、感情表現、否定表現は含めない。
   例: 「まじで今日レシート整理しないとまずい」→「レシート整理」

3. detail: 意図を汲んだ50文字程度の説明。

4. scope:
   - today: 今日、いま、すぐ、急、明日まで
   - this_week: 今週、週末、来週
   - someday: いつか、期限なし

5. tags: 関連キーワードを3〜5個。

【出力形式】
{"category": "work", "summary": "...", "detail": "...", "scope": "today", "tags": ["...", "..."]}

JSON以外は出力しないでください。複数の要素が混ざっている場合は最も重要な要素を優先してください。`

func buildPrompt(text string) string {
	return fmt.Sprintf(analysisPrompt, text)
}
