// Package web exposes the authoring scene over HTTP: JSON inspection
// of meshes, layers and composites, an export trigger and a websocket
// feed of pipeline progress.
package web

import (
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/strata3d/layerpaint/export"
	"github.com/strata3d/layerpaint/layers"
	"github.com/strata3d/layerpaint/mesh"
	"github.com/strata3d/layerpaint/status"
	"github.com/strata3d/layerpaint/webutils"
)

// Server serves one scene and one layer store.
type Server struct {
	Store *layers.Store
	Scene *mesh.Scene
	Log   *zap.Logger

	exportDir string
}

// StartServer blocks serving the authoring API on addr. webPath is
// the static panel directory; exportDir receives written artifacts.
func StartServer(addr string, store *layers.Store, scene *mesh.Scene, webPath, exportDir string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{Store: store, Scene: scene, Log: log, exportDir: exportDir}
	webutils.SetLogger(log)
	status.SetLogger(log)

	r := mux.NewRouter()
	r.HandleFunc("/json/scene", s.HandlerScene)
	r.HandleFunc("/json/project", s.HandlerProject)
	r.HandleFunc("/json/mesh/{name}", s.HandlerMesh)
	r.HandleFunc("/json/composite/{name}", s.HandlerComposite)
	r.HandleFunc("/json/mask/{name}", s.HandlerMask)
	r.HandleFunc("/action/export", s.HandlerExport)
	r.HandleFunc("/ws/status", s.HandlerStatusWS)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Info("starting web server", zap.String("addr", addr))
	return http.ListenAndServe(addr, h)
}

func (s *Server) baker() *export.Baker {
	return export.NewBaker(s.Store, s.Scene, s.Log)
}
