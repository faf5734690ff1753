// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beam-label/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "files")

		if _, err := NewLocalStore(uploadDir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves source file with extension", func(t *testing.T) {
		store := createTestStore(t)
		content := "label,x,y\nB1,0,0\n"

		info, err := store.Save("Beams.CSV", models.FileKindSource, strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.Status != "uploaded" {
			t.Errorf("Expected status 'uploaded', got %v", info.Status)
		}

		path, err := store.GetFilePath(info.ID)
		if err != nil {
			t.Fatalf("Failed to get path: %v", err)
		}
		if filepath.Base(path) != info.ID+".csv" {
			t.Errorf("Expected stored name %s.csv, got %s", info.ID, filepath.Base(path))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})

	t.Run("marks dxf output as exported", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.SaveBytes("beam_labels.dxf", models.FileKindDXF, []byte("0\nEOF"))
		if err != nil {
			t.Fatalf("Failed to save bytes: %v", err)
		}
		if info.Kind != models.FileKindDXF || info.Status != "exported" {
			t.Errorf("Unexpected metadata: kind=%s status=%s", info.Kind, info.Status)
		}
	})
}

func TestLocalStore_Get(t *testing.T) {
	store := createTestStore(t)

	info, err := store.SaveBytes("a.yaml", models.FileKindSource, []byte("beams: []"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	got, err := store.Get(info.ID)
	if err != nil {
		t.Fatalf("Failed to get file: %v", err)
	}
	if got.Name != "a.yaml" {
		t.Errorf("Expected name a.yaml, got %s", got.Name)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t)

	var sourceIDs []string
	for i := 0; i < 3; i++ {
		info, err := store.SaveBytes("beams.csv", models.FileKindSource, []byte("x"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		sourceIDs = append(sourceIDs, info.ID)
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := store.SaveBytes("out.dxf", models.FileKindDXF, []byte("x")); err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	t.Run("filters by kind and sorts newest first", func(t *testing.T) {
		files, err := store.List(models.FileKindSource, 10)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 3 {
			t.Fatalf("Expected 3 files, got %d", len(files))
		}
		if files[0].ID != sourceIDs[2] || files[2].ID != sourceIDs[0] {
			t.Error("Expected files sorted by upload time descending")
		}
	})

	t.Run("empty kind lists everything", func(t *testing.T) {
		files, _ := store.List("", 0)
		if len(files) != 4 {
			t.Errorf("Expected 4 files, got %d", len(files))
		}
	})

	t.Run("limits results", func(t *testing.T) {
		files, _ := store.List("", 2)
		if len(files) != 2 {
			t.Errorf("Expected 2 files, got %d", len(files))
		}
	})
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)

	info, _ := store.SaveBytes("gone.csv", models.FileKindSource, []byte("x"))
	path, _ := store.GetFilePath(info.ID)

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected physical file to be removed")
	}
	if _, err := store.GetFilePath(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLocalStore_Rename(t *testing.T) {
	store := createTestStore(t)

	info, _ := store.SaveBytes("old.csv", models.FileKindSource, []byte("x"))
	renamed, err := store.Rename(info.ID, "tower-a.csv")
	if err != nil {
		t.Fatalf("Failed to rename: %v", err)
	}
	if renamed.Name != "tower-a.csv" {
		t.Errorf("Expected new name, got %s", renamed.Name)
	}

	if _, err := store.Rename("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_ReturnsCopies(t *testing.T) {
	store := createTestStore(t)

	info, _ := store.SaveBytes("a.csv", models.FileKindSource, []byte("x"))
	info.Name = "changed-by-caller.csv"

	got, _ := store.Get(info.ID)
	if got.Name != "a.csv" {
		t.Fatalf("Expected stored name to be unaffected, got %s", got.Name)
	}

	got.Status = "error"
	listed, _ := store.List("", 0)
	if listed[0].Status != "uploaded" {
		t.Errorf("Expected stored status to be unaffected, got %s", listed[0].Status)
	}

	if _, err := store.Rename(info.ID, "b.csv"); err != nil {
		t.Fatalf("Failed to rename: %v", err)
	}
	if got.Name != "a.csv" {
		t.Errorf("Expected earlier copy to keep its name, got %s", got.Name)
	}
	again, _ := store.Get(info.ID)
	if again.Name != "b.csv" {
		t.Errorf("Expected renamed file, got %s", again.Name)
	}
}

func TestLocalStore_ConcurrentRenameAndGet(t *testing.T) {
	store := createTestStore(t)
	info, _ := store.SaveBytes("a.csv", models.FileKindSource, []byte("x"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.Rename(info.ID, fmt.Sprintf("name-%d.csv", i))
		}(i)
		go func() {
			defer wg.Done()
			got, err := store.Get(info.ID)
			if err == nil && got.Name == "" {
				t.Error("Expected a name")
			}
		}()
	}
	wg.Wait()
}
