package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rayan-1005/skyhook/internal/domain"
)

// Resolver превращает недоверенные относительные пути клиента в абсолютные
// пути строго внутри корня. Единственная точка, через которую хэндлеры
// получают путь до файловой системы.
type Resolver struct {
	root string // канонический абсолютный корень, не меняется после старта
}

func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}

	// симлинки корня разворачиваем один раз на старте, иначе проверка
	// принадлежности ниже сравнивала бы разные формы одного пути.
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize root %q: %w", abs, err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %q: %w", canonical, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q: %w", canonical, domain.ErrNotADirectory)
	}

	return &Resolver{root: canonical}, nil
}

func (rv *Resolver) Root() string {
	return rv.root
}

// Resolve возвращает канонический абсолютный путь для requested или
// domain.ErrPathTraversal, если результат выходит за пределы корня.
// Несуществующий путь — не ошибка: существование проверяет вызывающий.
func (rv *Resolver) Resolve(requested string) (string, error) {
	req := strings.TrimSpace(requested)
	if strings.ContainsRune(req, 0) {
		return "", fmt.Errorf("path contains NUL byte: %w", domain.ErrPathTraversal)
	}

	// срезаем абсолютные префиксы: клиент не выбирает точку отсчёта.
	req = strings.ReplaceAll(req, "\\", "/")
	req = strings.TrimLeft(req, "/")
	if req == domain.PathEmpty || req == domain.PathCurrent {
		return rv.root, nil
	}

	joined := filepath.Join(rv.root, filepath.FromSlash(req))

	// сначала канонизация, потом проверка принадлежности — в обратном
	// порядке симлинк внутри корня спокойно выводит наружу.
	canonical, err := canonicalize(joined)
	if err != nil {
		if os.IsPermission(err) {
			return "", fmt.Errorf("cannot canonicalize %q: %w", requested, domain.ErrPermissionDenied)
		}
		return "", fmt.Errorf("cannot canonicalize %q: %w", requested, domain.ErrPathTraversal)
	}

	if !rv.contains(canonical) {
		return "", fmt.Errorf("path %q resolves outside the serve root: %w", requested, domain.ErrPathTraversal)
	}

	return canonical, nil
}

// contains сравнивает по сегментам: голый префикс строк принял бы
// "/srv/files-evil" за потомка "/srv/files".
func (rv *Resolver) contains(abs string) bool {
	if abs == rv.root {
		return true
	}
	return strings.HasPrefix(abs, rv.root+string(filepath.Separator))
}

// canonicalize разворачивает симлинки. Для несуществующего пути
// канонизируется самый длинный существующий префикс, остаток дописывается как есть.
func canonicalize(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	clean := filepath.Clean(p)
	parent := filepath.Dir(clean)
	if parent == clean {
		// дошли до корня ФС, а он не существует — сдаёмся
		return "", err
	}
	resolvedParent, err := canonicalize(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(clean)), nil
}
