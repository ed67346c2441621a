package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestWalk_SymlinkCycle(t *testing.T) {
	s := newVault(t, nil)
	_ = s.Write("a/x.png", []byte("x"))
	if err := os.Symlink(s.Root(), filepath.Join(s.Root(), "a", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	var files []string
	if err := Walk(s, "", func(rel string) error {
		files = append(files, rel)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join("a", "x.png") {
		t.Errorf("files = %v", files)
	}
}

func TestWalk_SkipsHiddenDirs(t *testing.T) {
	s := newVault(t, nil)
	_ = s.Write(".obsidian/cache.png", []byte("c"))
	_ = s.Write("img.png", []byte("i"))

	var files []string
	_ = Walk(s, "", func(rel string) error {
		files = append(files, rel)
		return nil
	})
	if len(files) != 1 || files[0] != "img.png" {
		t.Errorf("files = %v", files)
	}
}

func TestWalk_SkipAll(t *testing.T) {
	s := newVault(t, nil)
	_ = s.Write("a.png", []byte("a"))
	_ = s.Write("b.png", []byte("b"))

	n := 0
	err := Walk(s, "", func(string) error {
		n++
		return fs.SkipAll
	})
	if err != nil || n != 1 {
		t.Errorf("n = %d, err = %v", n, err)
	}
}

func TestListNotes(t *testing.T) {
	s := newVault(t, nil)
	_ = s.Write("b.md", []byte("b"))
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/c.md", []byte("c"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".hidden.md", []byte("h"))

	top, err := ListNotes(s, "", false)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(top) != 2 || top[0] != "a.md" || top[1] != "b.md" {
		t.Errorf("top = %v", top)
	}

	all, err := ListNotes(s, "", true)
	if err != nil {
		t.Fatalf("ListNotes recursive: %v", err)
	}
	if len(all) != 3 || all[2] != filepath.Join("sub", "c.md") {
		t.Errorf("all = %v", all)
	}
}
