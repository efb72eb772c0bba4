package usecases

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rayan-1005/skyhook/internal/domain"
)

// UploadFiles пишет батч файлов в директорию dirPath. Ошибка возвращается
// только если сама директория невалидна; падение отдельного файла попадает
// в summary и не прерывает остальные.
func (s *FileService) UploadFiles(dirPath string, files []*multipart.FileHeader) (domain.UploadSummary, error) {
	summary := domain.UploadSummary{
		Uploaded: []domain.UploadedFile{},
		Errors:   []domain.UploadError{},
	}

	dirAbs, err := s.resolver.Resolve(dirPath)
	if err != nil {
		return summary, err
	}

	info, statErr := s.storage.Stat(dirAbs)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return summary, fmt.Errorf("upload directory '%s': %w", dirPath, domain.ErrFileNotFound)
		}
		return summary, fmt.Errorf("failed to stat upload directory '%s': %w", dirPath, statErr)
	}
	if !info.IsDir() {
		return summary, fmt.Errorf("upload target '%s': %w", dirPath, domain.ErrNotADirectory)
	}

	// один буфер на батч: размер загрузки не упирается в память
	buf := make([]byte, s.cfg.File.ChunkSize)

	for _, fh := range files {
		name, nameErr := s.sanitizeFilename(fh.Filename)
		if nameErr != nil {
			summary.Errors = append(summary.Errors, domain.UploadError{
				Filename: fh.Filename,
				Error:    nameErr.Error(),
			})
			continue
		}

		size, writeErr := s.writeUpload(filepath.Join(dirAbs, name), fh, buf)
		if writeErr != nil {
			summary.Errors = append(summary.Errors, domain.UploadError{
				Filename: name,
				Error:    writeErr.Error(),
			})
			continue
		}

		summary.Uploaded = append(summary.Uploaded, domain.UploadedFile{
			Filename: name,
			Size:     size,
		})
	}

	summary.Success = len(summary.Uploaded)
	summary.Failed = len(summary.Errors)
	return summary, nil
}

// writeUpload успех фиксируется только после того, как весь поток дочитан
// и файл закрыт без ошибки. Оборвавшаяся запись — это ошибка, недописанный
// хвост убирается best-effort.
func (s *FileService) writeUpload(dstAbs string, fh *multipart.FileHeader, buf []byte) (int64, error) {
	src, err := fh.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			logrus.Warnf("Failed to close upload stream %s: %v", fh.Filename, closeErr)
		}
	}()

	dst, err := s.storage.CreateFile(dstAbs)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, copyErr := io.CopyBuffer(dst, src, buf)
	closeErr := dst.Close()

	if copyErr != nil || closeErr != nil {
		if removeErr := s.storage.Remove(dstAbs); removeErr != nil {
			logrus.Warnf("Failed to remove partial upload %s: %v", dstAbs, removeErr)
		}
		if copyErr != nil {
			return 0, fmt.Errorf("failed to write file: %w", copyErr)
		}
		return 0, fmt.Errorf("failed to finalize file: %w", closeErr)
	}

	return written, nil
}

// sanitizeFilename берёт только последний сегмент предложенного имени —
// вторая линия защиты независимо от Resolver: тот проверяет параметр path,
// а не имя из самой multipart-части.
func (s *FileService) sanitizeFilename(proposed string) (string, error) {
	name := proposed
	// клиенты с Windows присылают пути с backslash
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)

	if name == domain.PathEmpty || name == domain.PathCurrent || name == ".." {
		return "", fmt.Errorf("filename '%s': %w", proposed, domain.ErrInvalidName)
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("filename '%s': %w", proposed, domain.ErrInvalidName)
	}
	if s.cfg.File.RejectHidden && strings.HasPrefix(name, s.cfg.File.HiddenPrefix) {
		return "", fmt.Errorf("hidden filename '%s': %w", proposed, domain.ErrInvalidName)
	}
	if len(name) > s.cfg.File.MaxNameLength {
		return "", fmt.Errorf("filename '%s' too long (%d > %d): %w",
			proposed, len(name), s.cfg.File.MaxNameLength, domain.ErrPathTooLong)
	}

	return name, nil
}
