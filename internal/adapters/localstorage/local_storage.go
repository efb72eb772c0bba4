package localstorage

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LocalStorage тонкий адаптер над файловой системой. Принимает только
// абсолютные пути, прошедшие через security.Resolver — сам ничего не проверяет.
type LocalStorage struct {
	dirPerm os.FileMode
}

func NewLocalStorage(dirPerm os.FileMode) *LocalStorage {
	return &LocalStorage{dirPerm: dirPerm}
}

func (s *LocalStorage) ReadDirectory(absPath string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, err
	}

	files := make([]os.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, infoErr := e.Info()
		if infoErr != nil {
			// пропуск файла, например, с битым симлинком
			logrus.Warnf("Failed to get info for %s: %v", e.Name(), infoErr)
			continue
		}
		files = append(files, info)
	}

	return files, nil
}

func (s *LocalStorage) Stat(absPath string) (os.FileInfo, error) {
	return os.Stat(absPath)
}

func (s *LocalStorage) CreateFile(absPath string) (io.WriteCloser, error) {
	return os.Create(absPath)
}

func (s *LocalStorage) CreateDirectory(absPath string) error {
	return os.MkdirAll(absPath, s.dirPerm)
}

func (s *LocalStorage) Remove(absPath string) error {
	return os.RemoveAll(absPath)
}

// Move пустой целевой путь отклоняется, чтобы избежать случайной потери данных.
func (s *LocalStorage) Move(oldAbs, newAbs string) error {
	if newAbs == "" {
		return os.ErrInvalid
	}
	return os.Rename(oldAbs, newAbs)
}
