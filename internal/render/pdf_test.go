package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/retropress/retropress/internal/config"
	"github.com/retropress/retropress/pkg/models"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	return New(config.PDFConfig{PageSize: "A3"}, slog.New(slog.DiscardHandler))
}

func testBundle(t *testing.T) *models.ArticleBundle {
	t.Helper()
	article := func(headline string) models.Article {
		return models.Article{
			Headline: headline,
			Body:     "本文テキスト。歴史的な一日を伝える記事。",
			Category: models.CategorySociety,
		}
	}
	bundle := &models.ArticleBundle{
		Date:        time.Date(1964, 10, 10, 0, 0, 0, 0, time.UTC),
		Masthead:    "時空新報",
		Edition:     "第一号 朝刊",
		Weather:     "晴れ時々曇り",
		Main:        article("東京五輪開幕"),
		SubArticles: []models.Article{article("経済"), article("文化"), article("スポーツ")},
		Editorial:   article("社説"),
		ColumnTitle: "余滴",
		ColumnBody:  "コラム本文。",
		Advertisements: []models.Advertisement{
			{Title: "山田百貨店", Body: "秋の大売り出し"},
		},
	}
	if err := bundle.Validate(); err != nil {
		t.Fatalf("test bundle invalid: %v", err)
	}
	return bundle
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, G: 180, B: 140, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRenderFullPage(t *testing.T) {
	renderer := testRenderer(t)
	bundle := testBundle(t)

	images := models.NewImageSet(models.SubArticleCount)
	uri := pngDataURI(t)
	for i := 0; i < images.SlotCount(); i++ {
		images.SetSlot(i, uri)
	}

	data, err := renderer.Render(bundle, images)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output does not look like a pdf, starts with %q", data[:8])
	}
}

func TestRenderAbsentSlotsDrawFrames(t *testing.T) {
	renderer := testRenderer(t)
	bundle := testBundle(t)

	// All slots absent; the page should still render with frames.
	images := models.NewImageSet(models.SubArticleCount)

	data, err := renderer.Render(bundle, images)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("expected pdf output")
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	renderer := testRenderer(t)
	bundle := testBundle(t)

	if _, err := renderer.Render(nil, models.NewImageSet(models.SubArticleCount)); err == nil {
		t.Error("expected error for nil bundle")
	}
	if _, err := renderer.Render(bundle, nil); err == nil {
		t.Error("expected error for nil image set")
	}
	if _, err := renderer.Render(bundle, models.NewImageSet(1)); err == nil {
		t.Error("expected error for slot count mismatch")
	}

	broken := testBundle(t)
	broken.SubArticles = broken.SubArticles[:2]
	if _, err := renderer.Render(broken, models.NewImageSet(2)); err == nil {
		t.Error("expected error for invalid bundle")
	}
}

func TestFilename(t *testing.T) {
	bundle := testBundle(t)
	if got := Filename(bundle); got != "retropress-1964-10-10.pdf" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		wantType string
		wantErr  bool
	}{
		{"png", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("x")), "PNG", false},
		{"jpeg", "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("x")), "JPG", false},
		{"not a data uri", "https://placehold.co/600x400", "", true},
		{"missing comma", "data:image/png;base64", "", true},
		{"not base64 encoded", "data:image/png,rawbytes", "", true},
		{"unsupported mime", "data:image/webp;base64,AAAA", "", true},
		{"bad payload", "data:image/png;base64,!!!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imageType, _, err := decodeDataURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeDataURI() error = %v", err)
			}
			if imageType != tt.wantType {
				t.Errorf("image type = %q, want %q", imageType, tt.wantType)
			}
		})
	}

	if !strings.HasPrefix(pngDataURI(t), "data:image/png;base64,") {
		t.Error("test helper produced unexpected uri")
	}
}
