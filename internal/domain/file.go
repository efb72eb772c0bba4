package domain

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// FileEntry информация о файле или директории в листинге.
// RelPath всегда slash-путь относительно корня, пригодный для query-параметра.
type FileEntry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
	RelPath string
}

// UploadedFile успешно записанный файл из батча загрузки.
type UploadedFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// UploadError ошибка по одному файлу, не прерывает остальные.
type UploadError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// UploadSummary итог батча: списки и счётчики, а не единый pass/fail.
type UploadSummary struct {
	Uploaded []UploadedFile `json:"uploaded"`
	Errors   []UploadError  `json:"errors"`
	Success  int            `json:"success"`
	Failed   int            `json:"failed"`
}

// FileStorage для операций работы с файловым хранилищем.
// Все пути абсолютные: их выдаёт только security.Resolver.
type FileStorage interface {
	ReadDirectory(absPath string) ([]os.FileInfo, error)
	Stat(absPath string) (os.FileInfo, error)
	CreateFile(absPath string) (io.WriteCloser, error)
	CreateDirectory(absPath string) error
	Remove(absPath string) error
	Move(oldAbs, newAbs string) error
}

// FileService для сценариев работы с файлами. Пути здесь — сырые строки от клиента.
type FileService interface {
	List(path string) ([]FileEntry, error)
	ServeFile(w http.ResponseWriter, r *http.Request, path string) error
	ServeFolderAsZip(w http.ResponseWriter, path string) error
	UploadFiles(path string, files []*multipart.FileHeader) (UploadSummary, error)
	CreateFolder(path string) error
	Delete(path string) error
	Rename(oldPath, newPath string) error
}
