package template

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"tenant-deployment-system/internal/apperr"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var templateName = regexp.MustCompile(`^[A-Za-z0-9._()-]{1,80}$`)

type Info struct {
	Name         string    `json:"name"`
	FileName     string    `json:"fileName"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

type cached struct {
	modTime time.Time
	body    []byte
}

// Catalog serves workflow templates from a directory of *.json files.
// Loaded documents are cached and re-read when the file's mtime changes.
type Catalog struct {
	dir   string
	cache *gocache.Cache
}

func NewCatalog(dir string, ttl time.Duration) *Catalog {
	return &Catalog{dir: dir, cache: gocache.New(ttl, time.Minute)}
}

func (c *Catalog) List() ([]Info, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("template directory not found", err)
		}
		return nil, apperr.Internal("read template directory", err)
	}

	templates := []Info{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			zap.L().Warn("skip unreadable template", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		templates = append(templates, Info{
			Name:         strings.TrimSuffix(fi.Name(), filepath.Ext(fi.Name())),
			FileName:     fi.Name(),
			Size:         fi.Size(),
			LastModified: fi.ModTime().UTC(),
		})
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

// Load returns the raw document of the named template.
func (c *Catalog) Load(name string) ([]byte, error) {
	if !templateName.MatchString(name) || name == "." || name == ".." {
		return nil, apperr.ValidationInput("invalid template name")
	}

	path := filepath.Join(c.dir, name+".json")
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("template '"+name+"' not found", nil)
		}
		return nil, apperr.Internal("stat template", err)
	}

	if v, ok := c.cache.Get(name); ok {
		if entry := v.(cached); entry.modTime.Equal(fi.ModTime()) {
			return entry.body, nil
		}
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Internal("read template", err)
	}
	c.cache.SetDefault(name, cached{modTime: fi.ModTime(), body: body})
	return body, nil
}
