package persona

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStaticCatalogGet(t *testing.T) {
	c := NewStaticCatalog(Profile{ID: "p1", DisplayName: "Nocturne", Traits: []string{"quiet"}})

	got, err := c.Get(context.Background(), " p1 ")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DisplayName != "Nocturne" {
		t.Fatalf("DisplayName = %q, want %q", got.DisplayName, "Nocturne")
	}

	got.Traits[0] = "loud"
	again, _ := c.Get(context.Background(), "p1")
	if again.Traits[0] != "quiet" {
		t.Fatalf("catalog profile mutated through returned copy: %+v", again)
	}

	if _, err := c.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDefaultCatalogHasProfiles(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() == 0 {
		t.Fatalf("DefaultCatalog() is empty")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `personalities:
  - id: starry
    display_name: The Starry Night
    voice: dreamy
    traits: [passionate, vivid]
  - id: sparse
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	starry, err := c.Get(context.Background(), "starry")
	if err != nil {
		t.Fatalf("Get(starry) error = %v", err)
	}
	if starry.Voice != "dreamy" || len(starry.Traits) != 2 || starry.Traits[1] != "vivid" {
		t.Fatalf("unexpected profile: %+v", starry)
	}
	sparse, err := c.Get(context.Background(), "sparse")
	if err != nil {
		t.Fatalf("Get(sparse) error = %v", err)
	}
	if sparse.DisplayName != "" || sparse.Traits != nil {
		t.Fatalf("sparse profile should keep empty fields: %+v", sparse)
	}
}

func TestLoadFileRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("personalities:\n  - display_name: nameless\n"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("LoadFile() expected error for entry without id")
	}
}
