package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

//go:embed defaults/*.yml
var defaultConfigs embed.FS

// initAction is what init did with one default file.
type initAction string

const (
	initCreated  initAction = "created"
	initSkipped  initAction = "skipped"
	initReplaced initAction = "replaced"
)

// initResult reports one default file written (or not) by initConfig.
type initResult struct {
	Name   string
	Action initAction
	Backup string // set when an existing file was replaced
}

// initConfig writes the embedded defaults into dir. Existing files are kept
// unless force is set, in which case each is saved as <name>.bak first.
func initConfig(dir string, force bool) ([]initResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	var results []initResult
	err := fs.WalkDir(defaultConfigs, "defaults", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		res, err := installDefault(dir, name, force)
		if err != nil {
			return err
		}
		logger.Debug("default config", zap.String("file", res.Name), zap.String("action", string(res.Action)))
		results = append(results, res)
		return nil
	})
	return results, err
}

func installDefault(dir, name string, force bool) (initResult, error) {
	res := initResult{Name: path.Base(name), Action: initCreated}
	dst := filepath.Join(dir, res.Name)

	existing, err := os.ReadFile(dst)
	switch {
	case err == nil && !force:
		res.Action = initSkipped
		return res, nil
	case err == nil:
		res.Action = initReplaced
		res.Backup = res.Name + ".bak"
		if err := os.WriteFile(dst+".bak", existing, 0644); err != nil {
			return res, fmt.Errorf("back up %s: %w", res.Name, err)
		}
	case !os.IsNotExist(err):
		return res, fmt.Errorf("read %s: %w", dst, err)
	}

	data, err := defaultConfigs.ReadFile(name)
	if err != nil {
		return res, fmt.Errorf("read embedded %s: %w", res.Name, err)
	}
	if err := writeFileAtomic(dst, data); err != nil {
		return res, fmt.Errorf("write %s: %w", dst, err)
	}
	return res, nil
}
