package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const latestConfigVersion = 1

// migration is a named config migration step.
type migration struct {
	version int
	name    string
	run     func(path string, out io.Writer) error
}

var migrations = []migration{
	{version: 1, name: "rename_anchor_to_marker", run: renameAnchorKey},
}

// migrateConfig runs all pending migrations on dir/config.yml.
func migrateConfig(dir string, out io.Writer) error {
	configPath := filepath.Join(dir, "config.yml")

	appCfg, err := LoadAppConfig(dir)
	if err != nil {
		return err
	}

	current := appCfg.ConfigVersion
	if current >= latestConfigVersion {
		fmt.Fprintln(out, "logstamp: config already up to date")
		return nil
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		fmt.Fprintf(out, "logstamp: running migration %d (%s)\n", m.version, m.name)
		if err := m.run(configPath, out); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}

	// Update config_version in config.yml using yaml.Node to preserve comments.
	if err := setConfigVersion(configPath, latestConfigVersion); err != nil {
		return fmt.Errorf("set config_version: %w", err)
	}

	fmt.Fprintln(out, "logstamp: migration complete")
	return nil
}

// loadMapping parses path into a document node and returns its root
// mapping. A nil mapping means the file is empty or not a mapping.
func loadMapping(path string) (*yaml.Node, *yaml.Node, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return &doc, nil, data, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return &doc, nil, data, nil
	}
	return &doc, root, data, nil
}

// setConfigVersion updates or inserts config_version in config.yml,
// preserving existing comments and formatting.
func setConfigVersion(path string, version int) error {
	doc, root, _, err := loadMapping(path)
	if os.IsNotExist(err) {
		// No config.yml, create a minimal one.
		content := fmt.Sprintf("config_version: %d\n", version)
		return os.WriteFile(path, []byte(content), 0644)
	}
	if err != nil {
		return err
	}
	if root == nil {
		if len(doc.Content) > 0 {
			return fmt.Errorf("config.yml root is not a mapping")
		}
		content := fmt.Sprintf("config_version: %d\n", version)
		return os.WriteFile(path, []byte(content), 0644)
	}

	if val := mappingValue(root, "config_version"); val != nil {
		val.Value = fmt.Sprintf("%d", version)
		val.Tag = "!!int"
	} else {
		// Prepend config_version as the first key.
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: "config_version", Tag: "!!str"}
		valNode := &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%d", version), Tag: "!!int"}
		root.Content = append([]*yaml.Node{keyNode, valNode}, root.Content...)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config.yml: %w", err)
	}

	return writeFileAtomic(path, out)
}

// renameAnchorKey renames the pre-1 "anchor" key to "marker". When both
// are present the existing "marker" wins and "anchor" is dropped.
func renameAnchorKey(path string, out io.Writer) error {
	doc, root, data, err := loadMapping(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if root == nil {
		fmt.Fprintf(out, "  skip %s (not a mapping)\n", filepath.Base(path))
		return nil
	}

	anchorIdx := -1
	hasMarker := false
	for i := 0; i < len(root.Content)-1; i += 2 {
		switch root.Content[i].Value {
		case "anchor":
			anchorIdx = i
		case "marker":
			hasMarker = true
		}
	}
	if anchorIdx < 0 {
		fmt.Fprintf(out, "  skip %s (nothing to migrate)\n", filepath.Base(path))
		return nil
	}

	if hasMarker {
		root.Content = append(root.Content[:anchorIdx], root.Content[anchorIdx+2:]...)
	} else {
		root.Content[anchorIdx].Value = "marker"
	}

	// Back up original file.
	if err := os.WriteFile(path+".bak", data, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := writeFileAtomic(path, b); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	fmt.Fprintf(out, "  migrated %s (anchor -> marker)\n", filepath.Base(path))
	return nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
