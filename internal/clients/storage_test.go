package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetURL_AbsoluteAndRelative(t *testing.T) {
	tmpDir := t.TempDir()

	c, err := NewLocalStorage(tmpDir, "/files", "http://billing.example.com:8060")
	if err != nil {
		t.Fatalf("failed create storage: %v", err)
	}

	got := c.GetURL("receipts_20260101_120000.xlsx")
	want := "http://billing.example.com:8060/files/receipts_20260101_120000.xlsx"
	if got != want {
		t.Fatalf("expected %s; got %s", want, got)
	}

	// without base url
	c2, _ := NewLocalStorage(tmpDir, "/files", "")
	if got2 := c2.GetURL("customers_20260101_120000.xlsx"); got2 != "/files/customers_20260101_120000.xlsx" {
		t.Fatalf("expected /files/customers_20260101_120000.xlsx; got %s", got2)
	}
}

func TestSaveAndServeExport(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := NewLocalStorage(tmpDir, "/files", "")
	if err != nil {
		t.Fatalf("storage init: %v", err)
	}

	content := []byte("receipt rows")
	saved, err := c.Save(context.Background(), "receipts_20260101_120000.xlsx", content)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(saved, "_receipts_20260101_120000.xlsx") {
		t.Fatalf("stored name should keep the export name as suffix, got %s", saved)
	}

	// serve from BaseDir the way main does, stripping the random prefix
	// from the download filename
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file := strings.TrimPrefix(r.URL.Path, "/files/")
		path := filepath.Join(c.BaseDir, file)
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, r)
			return
		}
		if idx := strings.IndexByte(file, '_'); idx >= 0 {
			file = file[idx+1:]
		}
		w.Header().Set("Content-Disposition", "attachment; filename=\""+file+"\"")
		http.ServeFile(w, r, path)
	})

	ts := httptest.NewServer(h)
	defer ts.Close()

	// c.GetURL returns a relative path like /files/<saved>, so request via ts.URL
	resp, err := http.Get(ts.URL + c.GetURL(saved))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("bad status: %d", resp.StatusCode)
	}

	cd := resp.Header.Get("Content-Disposition")
	if !strings.Contains(cd, "receipts_20260101_120000.xlsx") {
		t.Fatalf("expected Content-Disposition with export filename, got %s", cd)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(content) {
		t.Fatalf("content mismatch: %s", string(body))
	}
}

func TestCleanupOlderThan(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := NewLocalStorage(tmpDir, "/files", "")
	if err != nil {
		t.Fatalf("storage init: %v", err)
	}

	stale, err := c.Save(context.Background(), "receipts_old.xlsx", []byte("old"))
	if err != nil {
		t.Fatalf("save stale: %v", err)
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(c.BaseDir, stale), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh, err := c.Save(context.Background(), "receipts_new.xlsx", []byte("new"))
	if err != nil {
		t.Fatalf("save fresh: %v", err)
	}

	if err := c.CleanupOlderThan(30 * time.Minute); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := os.Stat(filepath.Join(c.BaseDir, stale)); !os.IsNotExist(err) {
		t.Error("stale export should have been removed")
	}
	if _, err := os.Stat(filepath.Join(c.BaseDir, fresh)); err != nil {
		t.Errorf("fresh export should survive cleanup: %v", err)
	}
}
