package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/rayan-1005/skyhook/internal/config"
	"github.com/rayan-1005/skyhook/internal/domain"
)

type Handler struct {
	svc           domain.FileService
	staticPath    string
	templateFile  string
	maxUploadSize int64
	messages      config.Messages
	authEnabled   bool
}

type entryView struct {
	Name     string
	IsDir    bool
	Size     string
	Modified string
	Path     string
}

type crumb struct {
	Name string
	Path string
}

type browseData struct {
	Path        string
	Parent      string
	Breadcrumbs []crumb
	Files       []entryView
	AuthEnabled bool
}

func NewHandler(
	svc domain.FileService,
	staticPath string,
	templateFile string,
	maxUploadSize int64,
	messages config.Messages,
	authEnabled bool,
) *Handler {
	return &Handler{
		svc:           svc,
		staticPath:    staticPath,
		templateFile:  templateFile,
		maxUploadSize: maxUploadSize,
		messages:      messages,
		authEnabled:   authEnabled,
	}
}

func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get(QueryParamPath)

	files, err := h.svc.List(p)
	if err != nil {
		// запрошен файл — отдаём его вместо листинга, как делает download
		if errors.Is(err, domain.ErrNotADirectory) {
			if serveErr := h.svc.ServeFile(w, r, p); serveErr != nil {
				h.handleError(w, serveErr, h.messages.CannotServe)
			}
			return
		}
		h.handleError(w, err, h.messages.CannotListDirectory)
		return
	}

	views := make([]entryView, 0, len(files))
	for _, f := range files {
		size := "-"
		if !f.IsDir {
			size = humanize.Bytes(uint64(f.Size))
		}
		views = append(views, entryView{
			Name:     f.Name,
			IsDir:    f.IsDir,
			Size:     size,
			Modified: f.ModTime.Format(time.DateTime),
			Path:     f.RelPath,
		})
	}

	var parent string
	if p != domain.PathEmpty {
		parent = h.normalizePath(path.Dir(p))
	}

	h.renderTemplate(w, browseData{
		Path:        p,
		Parent:      parent,
		Breadcrumbs: breadcrumbs(p),
		Files:       views,
		AuthEnabled: h.authEnabled,
	})
}

// breadcrumbs навигация по каждому сегменту текущего пути.
func breadcrumbs(p string) []crumb {
	p = strings.Trim(p, "/")
	if p == domain.PathEmpty {
		return nil
	}
	parts := strings.Split(p, "/")
	crumbs := make([]crumb, 0, len(parts))
	for i, part := range parts {
		crumbs = append(crumbs, crumb{
			Name: part,
			Path: strings.Join(parts[:i+1], "/"),
		})
	}
	return crumbs
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ServeFile(w, r, h.getPathFromQuery(r)); err != nil {
		h.handleError(w, err, h.messages.CannotServe)
	}
}

func (h *Handler) DownloadFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ServeFolderAsZip(w, h.getPathFromQuery(r)); err != nil {
		h.handleError(w, err, h.messages.CannotServe)
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	h.handlePost(w, r, func() error {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

		// ContentLength может быть -1 при chunked-передаче, тогда границу
		// держит MaxBytesReader выше
		if r.ContentLength > h.maxUploadSize {
			return fmt.Errorf("request size %d exceeds maximum %d: %w",
				r.ContentLength, h.maxUploadSize, domain.ErrInvalidName)
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			return fmt.Errorf("failed to parse multipart form: %w", err)
		}
		defer func() {
			if removeErr := r.MultipartForm.RemoveAll(); removeErr != nil {
				logrus.Warnf("Failed to clean up multipart temp files: %v", removeErr)
			}
		}()

		currentPath := r.FormValue(FormParamPath)
		files := r.MultipartForm.File[FormParamFiles]
		if len(files) == 0 {
			return fmt.Errorf("no files in request: %w", domain.ErrInvalidName)
		}

		summary, err := h.svc.UploadFiles(currentPath, files)
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"operation": OperationUpload,
			"path":      currentPath,
			"success":   summary.Success,
			"failed":    summary.Failed,
		}).Info(LogFilesUploaded)

		h.writeJSON(w, summary)
		return nil
	}, h.messages.InternalError)
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	h.handlePost(w, r, func() error {
		name := r.FormValue(FormParamName)
		currentPath := r.FormValue(FormParamPath)
		fullPath := h.buildFullPath(currentPath, name)

		if err := h.svc.CreateFolder(fullPath); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"operation": OperationCreateFolder,
			"path":      fullPath,
		}).Info(LogFolderCreated)

		h.redirectToPath(w, r, currentPath)
		return nil
	}, h.messages.InternalError)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.handlePost(w, r, func() error {
		p := r.FormValue(FormParamPath)
		if err := h.svc.Delete(p); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"operation": OperationDelete,
			"path":      p,
		}).Info(LogFileOrFolderDeleted)

		h.redirectToPath(w, r, h.normalizeParentPath(p))
		return nil
	}, h.messages.CannotDelete)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	h.handlePost(w, r, func() error {
		oldPath := r.FormValue(FormParamOld)
		newName := r.FormValue(FormParamNew)

		parentPath := h.normalizeParentPath(oldPath)
		newFullPath := h.buildFullPath(parentPath, newName)
		if err := h.svc.Rename(oldPath, newFullPath); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"operation": OperationRename,
			"old_path":  oldPath,
			"new_path":  newFullPath,
		}).Info(LogFileOrFolderRenamed)

		h.redirectToPath(w, r, parentPath)
		return nil
	}, h.messages.InternalError)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, map[string]string{
		"status":  "healthy",
		"version": domain.Version,
	})
}

func (h *Handler) getPathFromQuery(r *http.Request) string {
	return r.URL.Query().Get(QueryParamPath)
}

func (h *Handler) normalizeParentPath(p string) string {
	parent := path.Dir(p)
	if parent == domain.PathCurrent || parent == domain.PathRoot {
		return domain.PathEmpty
	}
	return parent
}

func (h *Handler) buildFullPath(currentPath, name string) string {
	if currentPath != domain.PathEmpty {
		return path.Join(currentPath, name)
	}
	return name
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request, handler func() error, message string) {
	if r.Method != http.MethodPost {
		h.redirectToPath(w, r, "")
		return
	}

	if err := handler(); err != nil {
		h.handleError(w, err, message)
		return
	}
}

type errorType int

const (
	errorTypeBadRequest errorType = iota
	errorTypeForbidden
	errorTypeNotFound
	errorTypeInternal
)

// getErrorType сопоставляет доменные ошибки с HTTP-кодами статуса.
// Traversal — всегда отказ в доступе, без «тихого» исправления пути.
func (h *Handler) getErrorType(err error) errorType {
	switch {
	case errors.Is(err, domain.ErrPathTraversal) || errors.Is(err, domain.ErrPermissionDenied):
		return errorTypeForbidden
	case errors.Is(err, domain.ErrInvalidName) || errors.Is(err, domain.ErrPathTooLong) ||
		errors.Is(err, domain.ErrNotAFile) || errors.Is(err, domain.ErrNotADirectory):
		return errorTypeBadRequest
	case errors.Is(err, domain.ErrFileNotFound):
		return errorTypeNotFound
	default:
		return errorTypeInternal
	}
}

func (h *Handler) handleError(w http.ResponseWriter, err error, message string) {
	var httpStatus int
	var clientMessage string

	switch h.getErrorType(err) {
	case errorTypeBadRequest:
		httpStatus = http.StatusBadRequest
		clientMessage = h.messages.BadRequest
	case errorTypeForbidden:
		httpStatus = http.StatusForbidden
		clientMessage = h.messages.AccessDenied
	case errorTypeNotFound:
		httpStatus = http.StatusNotFound
		clientMessage = h.messages.NotFound
	case errorTypeInternal:
		httpStatus = http.StatusInternalServerError
		clientMessage = message
	}

	logrus.Errorf("HTTP %d Error: %s. Details: %+v", httpStatus, clientMessage, err)
	http.Error(w, clientMessage, httpStatus)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", domain.MIMEJSON)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (h *Handler) redirectToPath(w http.ResponseWriter, r *http.Request, p string) {
	http.Redirect(w, r, RedirectPathTemplate+h.normalizePath(p), http.StatusFound)
}

func (h *Handler) normalizePath(p string) string {
	switch p {
	case domain.PathCurrent, domain.PathRoot:
		return domain.PathEmpty
	default:
		return p
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, data browseData) {
	tmpl, parseErr := template.ParseFiles(filepath.Join(h.staticPath, h.templateFile))
	if parseErr != nil {
		logrus.Infoln(parseErr)
		http.Error(w, h.messages.TemplateError, http.StatusInternalServerError)
		return
	}

	if executeErr := tmpl.Execute(w, data); executeErr != nil {
		logrus.Infoln(executeErr)
		http.Error(w, h.messages.RenderError, http.StatusInternalServerError)
	}
}
