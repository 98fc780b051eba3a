package handlers

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"velora-server/config"

	"github.com/gin-gonic/gin"
)

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// GetSitemap renders sitemap.xml from active products and categories.
func GetSitemap(c *gin.Context) {
	base := strings.TrimRight(config.AppConfig.PublicBaseURL, "/")

	urls := []sitemapURL{
		{Loc: base + "/", ChangeFreq: "daily", Priority: "1.0"},
	}

	catRows, err := DB.Query(`SELECT slug, updated_at FROM categories WHERE is_active = true ORDER BY slug`)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to build sitemap")
		return
	}
	defer catRows.Close()
	for catRows.Next() {
		var slug string
		var updatedAt time.Time
		if err := catRows.Scan(&slug, &updatedAt); err != nil {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:        base + "/categories/" + slug,
			LastMod:    updatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	prodRows, err := DB.Query(`SELECT slug, updated_at FROM products WHERE status = 'active' ORDER BY slug`)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to build sitemap")
		return
	}
	defer prodRows.Close()
	for prodRows.Next() {
		var slug string
		var updatedAt time.Time
		if err := prodRows.Scan(&slug, &updatedAt); err != nil {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:        base + "/products/" + slug,
			LastMod:    updatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	c.XML(http.StatusOK, sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}

// GetRobots serves robots.txt. Admin and API paths are kept out of
// crawlers; the sitemap is advertised.
func GetRobots(c *gin.Context) {
	base := strings.TrimRight(config.AppConfig.PublicBaseURL, "/")
	body := strings.Join([]string{
		"User-agent: *",
		"Disallow: /admin",
		"Disallow: /api/",
		"Allow: /",
		"",
		"Sitemap: " + base + "/sitemap.xml",
		"",
	}, "\n")
	c.String(http.StatusOK, body)
}
