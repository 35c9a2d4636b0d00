package content

import (
	"fmt"
	"time"

	"github.com/retropress/retropress/internal/util"
	"github.com/retropress/retropress/pkg/models"
)

// bundlePrompt asks for the complete front page as a single JSON object.
// The JSON keys mirror the wire struct in bundle.go.
const bundlePrompt = `あなたは{{.EraStyle}}の新聞記者です。
重厚かつ温かみのある「である」調の文体で執筆し、AI的な平坦な表現や箇条書き、
絵文字、現代のネットスラングは使用しないでください。

{{.Date}}に関する歴史的事実（国内外の主要ニュース、経済、スポーツ、文化、
推定天気）を調査し、実際の出来事をベースに一面を構成してください。
{{if .HasPersonal}}
個人メッセージ欄: 宛名「{{.Recipient}}」、送り主「{{.Sender}}」、記念日「{{.Occasion}}」。
{{end}}
以下のJSON形式のみで出力してください。説明文は不要です。

{
  "masthead": "新聞名（創作可）",
  "edition": "第〇〇〇号 朝刊",
  "weather": "その日の推定天気",
  "main_article": {
    "headline": "一面トップ記事の見出し",
    "subheadline": "副見出し",
    "body": "本文（400〜600文字）",
    "category": "main",
    "image_prompt": "この記事に合う報道写真の英語プロンプト"
  },
  "sub_articles": [
    {
      "headline": "見出し",
      "body": "本文（200〜300文字）",
      "category": "politics|economy|society|culture|sports",
      "image_prompt": "英語プロンプト"
    }
  ],
  "editorial": {
    "headline": "社説の見出し",
    "body": "社説本文（300〜400文字）",
    "category": "editorial"
  },
  "column_title": "コラム欄のタイトル",
  "column_body": "その日にちなんだ季節感のあるコラム（200文字程度）",
  "advertisements": [
    {
      "title": "広告タイトル",
      "body": "その時代らしい商品やサービスの広告文",
      "flavor": "vintage"
    }
  ]
}

sub_articles はちょうど{{.SubCount}}本、advertisements は2〜3本としてください。`

var eraStyles = map[models.Style]string{
	models.StyleShowa:  "昭和時代の重厚な活字新聞",
	models.StyleHeisei: "平成初期の活字新聞",
	models.StyleReiwa:  "令和のレトロ調新聞",
}

var japaneseWeekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// formatJapaneseDate renders a date the way a newspaper dateline would.
func formatJapaneseDate(date time.Time) string {
	return fmt.Sprintf("%d年%d月%d日（%s曜日）",
		date.Year(), int(date.Month()), date.Day(), japaneseWeekdays[date.Weekday()])
}

func buildPrompt(date time.Time, style models.Style, personalization *models.Personalization) (string, error) {
	eraStyle, ok := eraStyles[style]
	if !ok {
		eraStyle = eraStyles[models.StyleShowa]
	}

	data := map[string]interface{}{
		"EraStyle":    eraStyle,
		"Date":        formatJapaneseDate(date),
		"SubCount":    models.SubArticleCount,
		"HasPersonal": personalization != nil,
		"Recipient":   "",
		"Sender":      "",
		"Occasion":    "",
	}
	if personalization != nil {
		data["Recipient"] = personalization.RecipientName
		data["Sender"] = personalization.SenderName
		data["Occasion"] = personalization.Occasion
	}

	return util.RenderTemplate(bundlePrompt, data)
}
