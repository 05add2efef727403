package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/haydee_tools/status"
	"github.com/mogaika/haydee_tools/vfs"
)

// NewRouter serves the assets under root. Static pages come from
// webPath/data when webPath is not empty.
func NewRouter(root *vfs.DirectoryDriver, webPath string) *mux.Router {
	s := &server{root: root}

	r := mux.NewRouter()
	r.HandleFunc("/json/dir", s.HandlerAjaxDir)
	r.HandleFunc("/json/dir/{path:.*}", s.HandlerAjaxDir)
	r.HandleFunc("/json/asset/{path:.+}", s.HandlerAjaxAsset)
	r.HandleFunc("/dump/yaml/{path:.+}", s.HandlerDumpYaml)
	r.HandleFunc("/dump/json/{path:.+}", s.HandlerDumpJson)
	r.HandleFunc("/dump/raw/{path:.+}", s.HandlerDumpRaw)
	r.HandleFunc("/export/gltf/{path:.+}", s.HandlerExportGltf)
	r.HandleFunc("/export/fbx/{path:.+}", s.HandlerExportFbx)
	r.HandleFunc("/export/emit/{ext}/{path:.+}", s.HandlerExportEmit)
	r.HandleFunc("/texture/{path:.+}", s.HandlerTexture)
	r.Handle("/ws/status", status.DefaultHub())

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

func StartServer(addr string, root *vfs.DirectoryDriver, webPath string) error {
	var h http.Handler = NewRouter(root, webPath)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v serving %q", addr, root.Path())

	return http.ListenAndServe(addr, h)
}
