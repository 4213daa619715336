package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// PyProjectFile is the standard Python project declaration file
const PyProjectFile = "pyproject.toml"

// Project is the subset of pyproject.toml smelt cares about
type Project struct {
	Name           string `toml:"name"`
	Version        string `toml:"version"`
	RequiresPython string `toml:"requires-python"`
}

type pyProject struct {
	Project Project `toml:"project"`
	Tool    struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ReadProject parses <root>/pyproject.toml. A missing file yields a Project
// named after the root directory; a malformed one is an error.
func ReadProject(root string) (*Project, error) {
	path := filepath.Join(root, PyProjectFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Project{Name: filepath.Base(root)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", PyProjectFile, err)
	}

	var parsed pyProject
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", PyProjectFile, err)
	}

	project := parsed.Project
	// Poetry projects declare metadata under [tool.poetry] instead
	if project.Name == "" {
		project.Name = parsed.Tool.Poetry.Name
		project.Version = parsed.Tool.Poetry.Version
	}
	if project.Name == "" {
		project.Name = filepath.Base(root)
	}
	return &project, nil
}
