package imagegen

import (
	"strings"

	"github.com/retropress/retropress/internal/util"
	"github.com/retropress/retropress/pkg/models"
)

// vintageModifiers is appended to every prompt so the output reads as an
// aged newspaper photograph rather than a modern render.
var vintageModifiers = []string{
	"photorealistic vintage newspaper print",
	"halftone dots texture",
	"ink bleed effect",
	"aged paper texture",
	"monochrome newsprint",
	"professional photojournalism composition",
}

var eraModifiers = map[models.Style]string{
	models.StyleShowa:  "1960s-1980s Japanese era style",
	models.StyleHeisei: "1990s-2010s Japanese era style",
	models.StyleReiwa:  "2020s Japanese with retro filter",
}

// categorySubjects supplies a scene when an article carries no prompt of
// its own.
var categorySubjects = map[models.Category]string{
	models.CategoryMain:      "important news scene, crowd of people, significant event",
	models.CategoryPolitics:  "government building, official ceremony",
	models.CategoryEconomy:   "stock market board, business district, factory",
	models.CategorySociety:   "daily life scene, community gathering, urban landscape",
	models.CategoryCulture:   "traditional arts, performance, cultural event",
	models.CategorySports:    "athletic competition, sports venue, victory moment",
	models.CategoryEditorial: "thoughtful composition, symbolic imagery",
}

func styleSuffix(style models.Style) string {
	era, ok := eraModifiers[style]
	if !ok {
		era = eraModifiers[models.StyleShowa]
	}
	return strings.Join(vintageModifiers, ", ") + ", " + era
}

// ArticlePrompt builds the image prompt for one article slot. The bundle's
// own prompt wins; otherwise a category-appropriate scene is derived from
// the article text.
func ArticlePrompt(article models.Article, style models.Style) string {
	if article.ImagePrompt != "" {
		return article.ImagePrompt
	}

	subject, ok := categorySubjects[article.Category]
	if !ok {
		subject = categorySubjects[models.CategoryMain]
	}
	era, ok := eraModifiers[style]
	if !ok {
		era = eraModifiers[models.StyleShowa]
	}
	return era + " newspaper photo, " + subject + ", representing: " + util.TruncateString(article.Body, 100)
}
