package web

import (
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/strata3d/layerpaint/export"
	"github.com/strata3d/layerpaint/status"
	"github.com/strata3d/layerpaint/webutils"
)

type sceneEntry struct {
	Name        string `json:"name"`
	Hidden      bool   `json:"hidden"`
	FaceVertex  int    `json:"faceVertexCount"`
	LayerSets   int    `json:"layerSets"`
	ActiveSet   int    `json:"activeSet"`
	LayerStatus string `json:"layerStatus"`
}

func (s *Server) HandlerScene(w http.ResponseWriter, r *http.Request) {
	var out []sceneEntry
	for _, root := range s.Scene.Roots {
		if root.Mesh == nil {
			continue
		}
		out = append(out, sceneEntry{
			Name:        root.Name,
			Hidden:      root.Hidden,
			FaceVertex:  root.Mesh.FaceVertexCount(),
			LayerSets:   root.Mesh.NumLayerSets,
			ActiveSet:   root.Mesh.ActiveLayerSet,
			LayerStatus: s.Store.VerifyLayers(root.Mesh).String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	webutils.WriteJson(w, out)
}

func (s *Server) HandlerProject(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, s.Store.Project)
}

type meshInfo struct {
	Name      string      `json:"name"`
	ColorSets []string    `json:"colorSets"`
	UVSets    []string    `json:"uvSets"`
	Badges    interface{} `json:"badges"`
}

func (s *Server) HandlerMesh(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	node := s.Scene.Find(name)
	if node == nil || node.Mesh == nil {
		webutils.WriteError(w, &meshNotFoundError{name})
		return
	}
	badges, err := s.Store.VerifyLayerState(node.Mesh)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, meshInfo{
		Name:      node.Name,
		ColorSets: node.Mesh.ColorSetNames(),
		UVSets:    node.Mesh.UVSetNames(),
		Badges:    badges,
	})
}

func (s *Server) HandlerComposite(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	node := s.Scene.Find(name)
	if node == nil || node.Mesh == nil {
		webutils.WriteError(w, &meshNotFoundError{name})
		return
	}
	colors, err := s.Store.Composite(node.Mesh)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, colors)
}

func (s *Server) HandlerMask(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	node := s.Scene.Find(name)
	if node == nil || node.Mesh == nil {
		webutils.WriteError(w, &meshNotFoundError{name})
		return
	}
	mask, err := s.Store.BuildLayerMask(node.Mesh)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, mask)
}

type exportRequest struct {
	Selection []string `json:"selection"`
	FileName  string   `json:"fileName"`
}

type exportResponse struct {
	Run      string   `json:"run"`
	File     string   `json:"file"`
	Exported int      `json:"exported"`
	Skipped  []string `json:"skipped"`
}

func (s *Server) HandlerExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := webutils.ReadJsonBody(r, &req); err != nil {
		webutils.WriteError(w, err)
		return
	}

	result, err := s.baker().Run(req.Selection)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	name := req.FileName
	if name == "" {
		name = time.Now().Format("export_20060102_150405") + ".glb"
	}
	out := filepath.Join(s.exportDir, name)
	if err := export.WriteGLTF(out, result); err != nil {
		webutils.WriteError(w, err)
		return
	}

	s.Log.Info("export written", zap.String("file", out))
	webutils.WriteJson(w, exportResponse{
		Run:      result.RunID.String(),
		File:     out,
		Exported: len(result.Exported),
		Skipped:  result.Skipped,
	})
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) HandlerStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn("status ws upgrade failed", zap.Error(err))
		return
	}
	status.NewClient(conn)
}

type meshNotFoundError struct {
	name string
}

func (e *meshNotFoundError) Error() string {
	return "no mesh named " + e.name + " in the scene"
}
