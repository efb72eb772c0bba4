package server

import (
	"net/http"

	"github.com/rayan-1005/skyhook/internal/config"
	"github.com/rayan-1005/skyhook/internal/security"
)

// NewRouter собирает маршруты. Всё, что трогает файловую систему, живёт
// за CredentialGate; health остаётся открытым для проверок живости.
func NewRouter(h *Handler, gate *security.CredentialGate, routes config.RoutesConfig) http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc(routes.Browse, h.Browse)
	protected.HandleFunc(routes.BrowseAlt, h.Browse)
	protected.HandleFunc(routes.Download, h.Download)
	protected.HandleFunc(routes.DownloadFolder, h.DownloadFolder)
	protected.HandleFunc(routes.Upload, h.Upload)
	protected.HandleFunc(routes.CreateFolder, h.CreateFolder)
	protected.HandleFunc(routes.Delete, h.Delete)
	protected.HandleFunc(routes.Rename, h.Rename)

	mux := http.NewServeMux()
	mux.Handle("/", security.RequireAuth(gate, protected))
	mux.HandleFunc(routes.Health, h.Health)
	return mux
}
