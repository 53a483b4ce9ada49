package handler

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/promptgallery/internal/domain"
	"golang.org/x/sync/errgroup"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapHandler renders sitemap.xml over every configured locale.
type SitemapHandler struct {
	catalog Catalog
	baseURL string
	locales []string
}

// NewSitemapHandler creates a new sitemap handler.
func NewSitemapHandler(catalog Catalog, baseURL string, locales []string) *SitemapHandler {
	return &SitemapHandler{
		catalog: catalog,
		baseURL: strings.TrimRight(baseURL, "/"),
		locales: locales,
	}
}

// Sitemap handles GET /sitemap.xml.
// Locales load in parallel; the entries keep configured locale order.
func (h *SitemapHandler) Sitemap(c *gin.Context) {
	snaps := make([]*domain.Snapshot, len(h.locales))
	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, locale := range h.locales {
		g.Go(func() error {
			snap, err := h.catalog.Snapshot(ctx, locale)
			if err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		respondError(c, err)
		return
	}

	set := urlSet{XMLNS: sitemapNS}
	for i, locale := range h.locales {
		lastMod := snaps[i].LoadedAt.UTC().Format(time.DateOnly)
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + "/" + locale,
			LastMod:    lastMod,
			ChangeFreq: "daily",
			Priority:   "1.0",
		})
		for _, p := range snaps[i].Prompts {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:        h.baseURL + "/" + locale + "/prompts/" + url.PathEscape(p.Slug),
				LastMod:    lastMod,
				ChangeFreq: "weekly",
				Priority:   "0.8",
			})
		}
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}
