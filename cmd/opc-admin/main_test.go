package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/opc-agent/internal/repo"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admin.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func runCmd(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String()
}

func tableCount(t *testing.T, path string) int {
	t.Helper()
	db, err := repo.OpenSQLite(path, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	missing, err := repo.MissingTables(db)
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	return len(missing)
}

func TestUsage(t *testing.T) {
	if code, _ := runCmd(t, ""); code != 2 {
		t.Fatalf("no args = %d", code)
	}
	if code, _ := runCmd(t, "", "explode"); code != 2 {
		t.Fatalf("unknown command = %d", code)
	}
	if code, out := runCmd(t, "", "help"); code != 0 || !strings.Contains(out, "drop") {
		t.Fatalf("help = %d %q", code, out)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	path := setupEnv(t)
	for i := 0; i < 2; i++ {
		code, out := runCmd(t, "", "init")
		if code != 0 || !strings.Contains(out, "初始化完成") {
			t.Fatalf("init #%d = %d %q", i, code, out)
		}
	}
	if n := tableCount(t, path); n != 0 {
		t.Fatalf("%d tables missing after init", n)
	}

	code, out := runCmd(t, "", "stats")
	if code != 0 || !strings.Contains(out, `"users": 0`) {
		t.Fatalf("stats = %d %q", code, out)
	}
}

func TestDropRequiresLiteralYes(t *testing.T) {
	path := setupEnv(t)
	if code, _ := runCmd(t, "", "init"); code != 0 {
		t.Fatalf("init failed")
	}

	for _, answer := range []string{"no\n", "y\n", "YES\n", ""} {
		code, out := runCmd(t, answer, "drop")
		if code != 0 || !strings.Contains(out, dropPrompt) || !strings.Contains(out, "已取消") {
			t.Fatalf("answer %q: %d %q", answer, code, out)
		}
		if n := tableCount(t, path); n != 0 {
			t.Fatalf("answer %q dropped %d tables", answer, n)
		}
	}

	code, out := runCmd(t, "yes\n", "drop")
	if code != 0 || !strings.Contains(out, "已删除") {
		t.Fatalf("drop = %d %q", code, out)
	}
	if n := tableCount(t, path); n == 0 {
		t.Fatalf("tables still present after drop")
	}
}
