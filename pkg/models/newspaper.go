package models

import (
	"fmt"
	"time"
)

// Style selects the presentation era for a generated newspaper.
type Style string

const (
	StyleShowa  Style = "showa"
	StyleHeisei Style = "heisei"
	StyleReiwa  Style = "reiwa"
)

// ParseStyle validates a user-supplied style string.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleShowa, StyleHeisei, StyleReiwa:
		return Style(s), nil
	case "":
		return StyleShowa, nil
	}
	return "", fmt.Errorf("unknown style %q (expected showa, heisei or reiwa)", s)
}

// Category tags an article unit for layout and image prompt selection.
type Category string

const (
	CategoryMain      Category = "main"
	CategoryPolitics  Category = "politics"
	CategoryEconomy   Category = "economy"
	CategorySociety   Category = "society"
	CategoryCulture   Category = "culture"
	CategorySports    Category = "sports"
	CategoryEditorial Category = "editorial"
)

// SubArticleCount is the fixed number of secondary articles in a bundle.
// The image stage relies on this for a stable slot count.
const SubArticleCount = 3

// Personalization carries the optional gift message printed in the
// personal column of the finished newspaper.
type Personalization struct {
	RecipientName string `json:"recipient_name"`
	SenderName    string `json:"sender_name"`
	Message       string `json:"message"`
	Occasion      string `json:"occasion"`
}

// Article is a single article unit within a bundle.
type Article struct {
	Headline    string   `json:"headline"`
	Subheadline string   `json:"subheadline,omitempty"`
	Body        string   `json:"body"`
	Category    Category `json:"category"`
	ImagePrompt string   `json:"image_prompt,omitempty"`
}

// Advertisement is one era-flavored advertisement blurb.
type Advertisement struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Flavor string `json:"flavor,omitempty"`
}

// ArticleBundle is the structured output of the text stage: one front-page
// layout worth of generated content for a single date.
type ArticleBundle struct {
	Date            time.Time        `json:"date"`
	Masthead        string           `json:"masthead"`
	Edition         string           `json:"edition"`
	Weather         string           `json:"weather"`
	Main            Article          `json:"main_article"`
	SubArticles     []Article        `json:"sub_articles"`
	Editorial       Article          `json:"editorial"`
	ColumnTitle     string           `json:"column_title"`
	ColumnBody      string           `json:"column_body"`
	Advertisements  []Advertisement  `json:"advertisements"`
	Personalization *Personalization `json:"personalization,omitempty"`
}

// Validate enforces the fixed bundle shape: exactly one main article with a
// headline, SubArticleCount sub-articles, one editorial and one column.
func (b *ArticleBundle) Validate() error {
	if b == nil {
		return fmt.Errorf("bundle is nil")
	}
	if b.Main.Headline == "" {
		return fmt.Errorf("main article headline is empty")
	}
	if len(b.SubArticles) != SubArticleCount {
		return fmt.Errorf("expected %d sub-articles, got %d", SubArticleCount, len(b.SubArticles))
	}
	for i, a := range b.SubArticles {
		if a.Headline == "" {
			return fmt.Errorf("sub-article %d has no headline", i)
		}
	}
	if b.Editorial.Headline == "" {
		return fmt.Errorf("editorial headline is empty")
	}
	if b.ColumnBody == "" {
		return fmt.Errorf("column body is empty")
	}
	return nil
}
