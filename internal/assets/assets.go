// Package assets provides the embedded templates written by `statsync init`.
package assets

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

//go:embed templates/*
var templatesFS embed.FS

// LoadTemplate returns the content of a template by file name.
// Override lookup order: project .statsync/templates/ > user ~/.statsync/templates/ > embedded.
func LoadTemplate(name string) (string, error) {
	return loadWithOverride("templates", name, templatesFS)
}

// TemplateNames lists the embedded templates, sorted.
func TemplateNames() ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func loadWithOverride(dir, filename string, embedded embed.FS) (string, error) {
	// 1. project-level override
	projectPath := filepath.Join(config.Dir, dir, filename)
	if data, err := os.ReadFile(projectPath); err == nil {
		return string(data), nil
	}

	// 2. user-level override
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, config.Dir, dir, filename)
		if data, err := os.ReadFile(userPath); err == nil {
			return string(data), nil
		}
	}

	// 3. embedded default; embed.FS paths always use forward slashes
	data, err := embedded.ReadFile(path.Join(dir, filename))
	if err != nil {
		return "", errors.Newf("%s %q not found", dir, filename)
	}
	return string(data), nil
}
