package server

import (
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) setupHttpRoutes() {
	logEveryRequest := false
	router := httprouter.New()

	handle := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			if logEveryRequest {
				s.Log.Infof("HTTP %v %v", method, r.URL.Path)
			}
			handle(w, r, params)
		})
	}

	handle("GET", "/api/ping", s.httpPing)
	handle("GET", "/api/splits", s.httpListSplits)
	handle("GET", "/api/split/:split", s.httpGetSplit)
	handle("GET", "/api/split/:split/summary", s.httpSplitSummary)
	handle("GET", "/api/split/:split/frame/:index", s.httpGetFrame)
	handle("GET", "/api/split/:split/frame/:index/render", s.httpRenderFrame)
	handle("POST", "/api/split/:split/export", s.httpExportSplit)
	handle("GET", "/api/exports", s.httpListExports)

	s.httpRouter = router
}
