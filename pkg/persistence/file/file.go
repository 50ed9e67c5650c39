// Package file provides file-based persistence for pipelines, executions and
// users. It backs local development and tests; production uses postgresql.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/textpipe/pkg/persistence"
)

// Persistence implements persistence.Persistence on the file system. Each
// entity is one JSON document; child collections are embedded in the parent
// document, which keeps cascade semantics trivial.
type Persistence struct {
	root          string
	userRepo      *UserRepository
	pipelineRepo  *PipelineRepository
	executionRepo *ExecutionRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix is stripped so the factory can pass database URLs.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	executionRepo := NewExecutionRepository(cleanRoot)

	return &Persistence{
		root:          cleanRoot,
		userRepo:      NewUserRepository(cleanRoot),
		pipelineRepo:  NewPipelineRepository(cleanRoot, executionRepo),
		executionRepo: executionRepo,
	}
}

// Users returns the user repository.
func (p *Persistence) Users() persistence.UserRepository {
	return p.userRepo
}

// Pipelines returns the pipeline repository.
func (p *Persistence) Pipelines() persistence.PipelineRepository {
	return p.pipelineRepo
}

// Executions returns the execution repository.
func (p *Persistence) Executions() persistence.ExecutionRepository {
	return p.executionRepo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// --- shared file helpers ---

func writeDocument(dir, id string, document any) error {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	path := filepath.Join(dir, id+".json")

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func readDocument(dir, id string, document any) (bool, error) {
	path := filepath.Join(dir, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	err = json.Unmarshal(data, document)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return true, nil
}

func removeDocument(dir, id string) (bool, error) {
	path := filepath.Join(dir, id+".json")

	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return true, nil
}

func listDocumentIDs(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", dir, err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}
