package content

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/retropress/retropress/internal/util"
	"github.com/retropress/retropress/pkg/models"
)

// Fallbacks for fields the model occasionally omits.
const (
	defaultMasthead    = "時空新報"
	defaultEdition     = "第一号 朝刊"
	defaultWeather     = "晴れ時々曇り"
	defaultColumnTitle = "余滴"
)

// wireBundle mirrors the JSON shape requested in the prompt.
type wireBundle struct {
	Masthead       string              `json:"masthead"`
	Edition        string              `json:"edition"`
	Weather        string              `json:"weather"`
	MainArticle    wireArticle         `json:"main_article"`
	SubArticles    []wireArticle       `json:"sub_articles"`
	Editorial      wireArticle         `json:"editorial"`
	ColumnTitle    string              `json:"column_title"`
	ColumnBody     string              `json:"column_body"`
	Advertisements []wireAdvertisement `json:"advertisements"`
}

type wireArticle struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	Body        string `json:"body"`
	Category    string `json:"category"`
	ImagePrompt string `json:"image_prompt"`
}

type wireAdvertisement struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Flavor string `json:"flavor"`
}

// parseBundle extracts and validates the article bundle from a raw model
// response. The model sometimes wraps JSON in code fences or leaves literal
// newlines inside strings, so the response is repaired before unmarshal.
func parseBundle(raw string, date time.Time, personalization *models.Personalization) (*models.ArticleBundle, error) {
	jsonStr := util.SanitizeJSON(util.ExtractJSON(raw))

	var wire wireBundle
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bundle: %w", err)
	}

	if len(wire.SubArticles) < models.SubArticleCount {
		return nil, fmt.Errorf("model returned %d sub-articles, need %d",
			len(wire.SubArticles), models.SubArticleCount)
	}
	// Extras are trimmed so the image stage always sees a stable slot count.
	subs := wire.SubArticles[:models.SubArticleCount]

	bundle := &models.ArticleBundle{
		Date:            date,
		Masthead:        orDefault(wire.Masthead, defaultMasthead),
		Edition:         orDefault(wire.Edition, defaultEdition),
		Weather:         orDefault(wire.Weather, defaultWeather),
		Main:            toArticle(wire.MainArticle, models.CategoryMain),
		Editorial:       toArticle(wire.Editorial, models.CategoryEditorial),
		ColumnTitle:     orDefault(wire.ColumnTitle, defaultColumnTitle),
		ColumnBody:      wire.ColumnBody,
		Personalization: personalization,
	}
	for _, s := range subs {
		bundle.SubArticles = append(bundle.SubArticles, toArticle(s, models.CategorySociety))
	}
	for _, ad := range wire.Advertisements {
		bundle.Advertisements = append(bundle.Advertisements, models.Advertisement{
			Title:  ad.Title,
			Body:   ad.Body,
			Flavor: ad.Flavor,
		})
	}

	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("bundle failed validation: %w", err)
	}

	return bundle, nil
}

func toArticle(w wireArticle, fallbackCategory models.Category) models.Article {
	category := models.Category(w.Category)
	if category == "" {
		category = fallbackCategory
	}
	return models.Article{
		Headline:    w.Headline,
		Subheadline: w.Subheadline,
		Body:        w.Body,
		Category:    category,
		ImagePrompt: w.ImagePrompt,
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
