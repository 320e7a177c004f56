package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"viewcounter/api/metrics"
	"viewcounter/api/middleware"
)

type RouterOptions struct {
	Views       ViewService
	Metrics     metrics.Sink
	Logger      zerolog.Logger
	ErrorStatus int
	StrictIDs   bool
	SelfTrack   bool
	CORSOrigin  string
}

// NewRouter dispatches by exact path. Anything unmatched, including a
// trailing slash variant, is a 404.
func NewRouter(opts RouterOptions) *gin.Engine {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop()
	}

	h := &ViewHandlers{
		Views:       opts.Views,
		Metrics:     opts.Metrics,
		ErrorStatus: opts.ErrorStatus,
		StrictIDs:   opts.StrictIDs,
		SelfTrack:   opts.SelfTrack,
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.SetHTMLTemplate(newIndexTemplate())

	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.CORSMiddleware(opts.CORSOrigin))

	routes := map[string]gin.HandlerFunc{
		"/":            h.Index,
		"/views":       h.GetViews,
		"/pixel.gif":   h.Pixel,
		"/favicon.ico": h.Favicon,
	}
	for path, handler := range routes {
		r.GET(path, handler)
		r.HEAD(path, handler)
	}
	r.NoRoute(h.NotFound)

	return r
}
