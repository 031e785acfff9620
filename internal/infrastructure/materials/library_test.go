package materials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

func TestReferenceLoadsByFinishName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "natural-stone.png"), []byte("stone"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	lib, err := New(dir, 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ref, err := lib.Reference(context.Background(), domain.FinishNaturalStone)
	if err != nil {
		t.Fatalf("Reference() error = %v", err)
	}
	if ref == nil || string(ref.Data) != "stone" || ref.MIMEType != "image/png" {
		t.Fatalf("unexpected reference: %+v", ref)
	}
}

func TestReferenceIsCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smooth.jpg")
	if err := os.WriteFile(path, []byte("smooth"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	lib, err := New(dir, 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := lib.Reference(context.Background(), domain.FinishSmooth); err != nil {
		t.Fatalf("Reference() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove sample: %v", err)
	}

	ref, err := lib.Reference(context.Background(), domain.FinishSmooth)
	if err != nil || ref == nil || ref.MIMEType != "image/jpeg" {
		t.Fatalf("expected cached reference, got %+v, %v", ref, err)
	}
}

func TestReferenceMissingIsNotAnError(t *testing.T) {
	lib, err := New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ref, err := lib.Reference(context.Background(), domain.FinishTextured)
	if err != nil || ref != nil {
		t.Fatalf("expected no reference, got %+v, %v", ref, err)
	}
}

func TestReferenceRejectsPathLikeFinish(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secret.png"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	lib, err := New(filepath.Join(dir), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ref, err := lib.Reference(context.Background(), domain.Finish("../secret"))
	if err != nil || ref != nil {
		t.Fatalf("expected no reference, got %+v, %v", ref, err)
	}
}

func TestEmptyDirDisablesLibrary(t *testing.T) {
	lib, err := New("", 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ref, err := lib.Reference(context.Background(), domain.FinishSmooth)
	if err != nil || ref != nil {
		t.Fatalf("expected no reference, got %+v, %v", ref, err)
	}
}

func TestNewRejectsMissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), 0); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
