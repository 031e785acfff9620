package materials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

const DefaultCacheSize = 32

var extensions = []struct {
	ext  string
	mime string
}{
	{".jpg", "image/jpeg"},
	{".jpeg", "image/jpeg"},
	{".png", "image/png"},
	{".webp", "image/webp"},
}

// Library serves the reference photo of a finish from <dir>/<finish>.<ext>.
// Lookups, including misses, are cached; the directory is read-only at runtime.
type Library struct {
	dir   string
	cache *lru.Cache[domain.Finish, *domain.MaterialReference]
}

func New(dir string, cacheSize int) (*Library, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("materials dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("materials dir %q is not a directory", dir)
		}
	}
	cache, err := lru.New[domain.Finish, *domain.MaterialReference](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("materials cache: %w", err)
	}
	return &Library{dir: dir, cache: cache}, nil
}

// Reference returns nil, nil when the finish has no bundled sample.
func (l *Library) Reference(ctx context.Context, finish domain.Finish) (*domain.MaterialReference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.dir == "" || !validName(finish) {
		return nil, nil
	}
	if ref, ok := l.cache.Get(finish); ok {
		return ref, nil
	}

	ref, err := l.load(finish)
	if err != nil {
		return nil, err
	}
	l.cache.Add(finish, ref)
	return ref, nil
}

func (l *Library) load(finish domain.Finish) (*domain.MaterialReference, error) {
	for _, e := range extensions {
		path := filepath.Join(l.dir, string(finish)+e.ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read material %s: %w", path, err)
		}
		slog.Debug("material_reference_loaded", "finish", finish, "path", path, "bytes", len(data))
		return &domain.MaterialReference{Finish: finish, Data: data, MIMEType: e.mime}, nil
	}
	return nil, nil
}

func validName(finish domain.Finish) bool {
	name := string(finish)
	return name != "" && !strings.ContainsAny(name, `/\.`)
}
