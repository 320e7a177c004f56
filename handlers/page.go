package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"viewcounter/api/utils"
)

// SelfTrackID is the identifier the landing page counts its own views under.
const SelfTrackID = "view-counter"

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Free and easy pixel view counter</title>
<style>html, body { background: #09090b; color: #a1a1aa; font-family: ui-sans-serif, system-ui, -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, "Noto Sans", sans-serif; }</style>
<style>code, pre { color: white; }</style>
<style>a { color: white; }</style>
</head>
<body>
<div>Please include the following html on your page to start tracking views.</div>
<pre>&lt;img src="{{.BaseURL}}/pixel.gif?id={{.ID}}" /&gt;</pre>
<div>You can access the amount of views via <code><a href="/views?id={{.ID}}&period=1d">{{.BaseURL}}/views?id={{.ID}}&amp;period=1d</a></code></div>
{{- if .SelfTrack}}
<div>This page has had {{.Views}} views.</div>
<img src="/pixel.gif?id={{.SelfTrackID}}" onerror="this.remove();" />
{{- end}}
</body>
</html>
`

func newIndexTemplate() *template.Template {
	return template.Must(template.New("index").Parse(indexHTML))
}

type indexPage struct {
	BaseURL     string
	ID          string
	Views       int64
	SelfTrack   bool
	SelfTrackID string
}

// Index renders the landing page with a fresh identifier suggestion.
func (h *ViewHandlers) Index(c *gin.Context) {
	page := indexPage{
		BaseURL:     baseURL(c.Request),
		ID:          utils.NewIdentifier(),
		SelfTrack:   h.SelfTrack,
		SelfTrackID: SelfTrackID,
	}
	if h.SelfTrack {
		page.Views = h.Views.CountViews(c.Request.Context(), SelfTrackID, utils.Period{Unit: "y", Length: 1})
	}

	c.HTML(http.StatusOK, "index", page)
}

// baseURL is the externally visible origin of r, honouring a TLS
// terminating proxy.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}
