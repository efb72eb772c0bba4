package usecases

import (
	"archive/zip"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rayan-1005/skyhook/internal/config"
	"github.com/rayan-1005/skyhook/internal/domain"
	"github.com/rayan-1005/skyhook/internal/security"
)

type FileService struct {
	storage  domain.FileStorage
	resolver *security.Resolver
	cfg      *config.Config
}

func NewFileService(storage domain.FileStorage, resolver *security.Resolver, cfg *config.Config) *FileService {
	return &FileService{
		storage:  storage,
		resolver: resolver,
		cfg:      cfg,
	}
}

// relPath slash-путь записи относительно корня, для ссылок в листинге.
func (s *FileService) relPath(absDir, name string) string {
	rel, err := filepath.Rel(s.resolver.Root(), absDir)
	if err != nil || rel == domain.PathCurrent {
		return name
	}
	return path.Join(filepath.ToSlash(rel), name)
}

func (s *FileService) List(p string) ([]domain.FileEntry, error) {
	absPath, err := s.resolver.Resolve(p)
	if err != nil {
		return nil, err
	}

	info, statErr := s.storage.Stat(absPath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, fmt.Errorf("could not stat '%s': %w", p, domain.ErrFileNotFound)
		}
		if os.IsPermission(statErr) {
			return nil, fmt.Errorf("could not stat '%s': %w", p, domain.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("failed to stat '%s': %w", p, statErr)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s': %w", p, domain.ErrNotADirectory)
	}

	entries, err := s.storage.ReadDirectory(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("could not read directory '%s': %w", p, domain.ErrFileNotFound)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("could not read directory '%s': %w", p, domain.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("failed to list '%s': %w", p, err)
	}

	files := make([]domain.FileEntry, 0, len(entries))
	for _, fi := range entries {
		size := fi.Size()
		if fi.IsDir() {
			size = 0
		}
		files = append(files, domain.FileEntry{
			Name:    fi.Name(),
			IsDir:   fi.IsDir(),
			Size:    size,
			ModTime: fi.ModTime(),
			RelPath: s.relPath(absPath, fi.Name()),
		})
	}

	s.sortEntries(files)
	return files, nil
}

// sortEntries директории сверху, дальше по имени без учёта регистра.
// Порядок — настраиваемая политика, а не контракт.
func (s *FileService) sortEntries(files []domain.FileEntry) {
	dirsFirst := s.cfg.File.DirsFirst
	sort.SliceStable(files, func(i, j int) bool {
		if dirsFirst && files[i].IsDir != files[j].IsDir {
			return files[i].IsDir
		}
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})
}

func (s *FileService) ServeFile(w http.ResponseWriter, r *http.Request, p string) error {
	absPath, err := s.resolver.Resolve(p)
	if err != nil {
		return err
	}

	info, statErr := s.storage.Stat(absPath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return fmt.Errorf("file not found at '%s': %w", p, domain.ErrFileNotFound)
		}
		if os.IsPermission(statErr) {
			return fmt.Errorf("cannot open '%s': %w", p, domain.ErrPermissionDenied)
		}
		return fmt.Errorf("failed to stat file at '%s': %w", p, statErr)
	}
	if info.IsDir() {
		return fmt.Errorf("'%s': %w", p, domain.ErrNotAFile)
	}

	// MIME по расширению, для корректного скачивания файлов
	mimeType := mime.TypeByExtension(filepath.Ext(absPath))
	if mimeType == domain.PathEmpty {
		mimeType = domain.MIMEOctetStream
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(absPath)))
	http.ServeFile(w, r, absPath)
	return nil
}

// shouldSkipFile исключает скрытые файлы из zip архива.
func (s *FileService) shouldSkipFile(info os.FileInfo) bool {
	return strings.HasPrefix(info.Name(), s.cfg.File.HiddenPrefix)
}

func (s *FileService) addFileToZip(zipWriter *zip.Writer, rootAbs, filePath string) error {
	rel, err := filepath.Rel(rootAbs, filePath)
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}

	dstFile, err := zipWriter.Create(filepath.ToSlash(rel))
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	srcFile, openErr := os.Open(filePath)
	if openErr != nil {
		return fmt.Errorf("failed to open file: %w", openErr)
	}
	defer func() {
		if closeErr := srcFile.Close(); closeErr != nil {
			logrus.Warnf("Failed to close file %s: %v", filePath, closeErr)
		}
	}()

	if _, copyErr := io.Copy(dstFile, srcFile); copyErr != nil {
		return fmt.Errorf("failed to copy file to zip: %w", copyErr)
	}

	return nil
}

// createZipArchive рекурсивно обходит дерево и добавляет все не скрытые файлы.
func (s *FileService) createZipArchive(zipWriter *zip.Writer, rootAbs string) error {
	return filepath.Walk(rootAbs, func(file string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if s.shouldSkipFile(info) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		return s.addFileToZip(zipWriter, rootAbs, file)
	})
}

func (s *FileService) ServeFolderAsZip(w http.ResponseWriter, p string) error {
	absPath, err := s.resolver.Resolve(p)
	if err != nil {
		return err
	}

	info, statErr := s.storage.Stat(absPath)
	if statErr != nil {
		return fmt.Errorf("could not stat folder '%s': %w", p, domain.ErrFileNotFound)
	}
	if !info.IsDir() {
		return fmt.Errorf("'%s': %w", p, domain.ErrNotADirectory)
	}

	zipName := filepath.Base(absPath) + domain.ExtensionZip
	w.Header().Set("Content-Type", domain.MIMEZip)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", zipName))

	zipWriter := zip.NewWriter(w)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil {
			logrus.Errorf("Failed to close zip writer: %v", closeErr)
		}
	}()

	if archiveErr := s.createZipArchive(zipWriter, absPath); archiveErr != nil {
		return fmt.Errorf("failed to create zip for folder '%s': %w", p, archiveErr)
	}

	return nil
}

func (s *FileService) CreateFolder(p string) error {
	absPath, err := s.resolver.Resolve(p)
	if err != nil {
		return err
	}
	if _, nameErr := s.sanitizeFilename(filepath.Base(absPath)); nameErr != nil {
		return nameErr
	}
	if createErr := s.storage.CreateDirectory(absPath); createErr != nil {
		return fmt.Errorf("could not create folder '%s': %w", p, createErr)
	}
	return nil
}

func (s *FileService) Delete(p string) error {
	absPath, err := s.resolver.Resolve(p)
	if err != nil {
		return err
	}
	if absPath == s.resolver.Root() {
		return fmt.Errorf("refusing to delete the serve root: %w", domain.ErrInvalidName)
	}
	if removeErr := s.storage.Remove(absPath); removeErr != nil {
		return fmt.Errorf("could not delete '%s': %w", p, removeErr)
	}
	return nil
}

func (s *FileService) Rename(oldPath, newPath string) error {
	oldAbs, err := s.resolver.Resolve(oldPath)
	if err != nil {
		return err
	}
	newAbs, err := s.resolver.Resolve(newPath)
	if err != nil {
		return err
	}
	if oldAbs == s.resolver.Root() {
		return fmt.Errorf("refusing to rename the serve root: %w", domain.ErrInvalidName)
	}
	if _, nameErr := s.sanitizeFilename(filepath.Base(newAbs)); nameErr != nil {
		return nameErr
	}
	if moveErr := s.storage.Move(oldAbs, newAbs); moveErr != nil {
		return fmt.Errorf("could not rename '%s' to '%s': %w", oldPath, newPath, moveErr)
	}
	return nil
}
