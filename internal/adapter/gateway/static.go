package gateway

import (
	_ "embed"
	"net/http"

	"github.com/DCloudHub/station-onboarding/internal/adapter/agent"
)

//go:embed static/index.html
var indexHTML []byte

//go:embed static/wizard.js
var wizardJS []byte

//go:embed static/wizard.css
var wizardCSS []byte

func registerStaticRoutes(s *Server) {
	s.RegisterHTTPRoute("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
	s.RegisterHTTPRoute("/static/agent.js", serveAsset("application/javascript", agent.Script))
	s.RegisterHTTPRoute("/static/wizard.js", serveAsset("application/javascript", wizardJS))
	s.RegisterHTTPRoute("/static/wizard.css", serveAsset("text/css", wizardCSS))
}

func serveAsset(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(body)
	}
}
