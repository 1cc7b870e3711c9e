package migrations

import (
	"strings"
	"testing"
	"testing/fstest"

	"indorunners-backend-go/internal/db"
)

func TestApplyIsIdempotent(t *testing.T) {
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	if err := Apply(conn); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := Apply(conn); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	names, err := Applied(conn)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	want := []string{"V1__init.sql", "V2__metrics.sql", "V3__payment_proof_unique.sql"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected applied set: %v", names)
	}
	var count int
	if err := conn.Get(&count, `SELECT COUNT(*) FROM registrations`); err != nil {
		t.Fatalf("registrations table missing: %v", err)
	}
}

func TestApplyFSOrdersByVersionNumber(t *testing.T) {
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	fsys := fstest.MapFS{
		"V10__second.sql": {Data: []byte(`ALTER TABLE things ADD COLUMN label TEXT`)},
		"V2__first.sql":   {Data: []byte(`CREATE TABLE things (id TEXT PRIMARY KEY)`)},
		"README.md":       {Data: []byte(`ignored`)},
	}
	if err := ApplyFS(conn, fsys); err != nil {
		t.Fatalf("apply: %v", err)
	}
	names, err := Applied(conn)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if len(names) != 2 || names[0] != "V2__first.sql" || names[1] != "V10__second.sql" {
		t.Fatalf("unexpected order: %v", names)
	}
}

func TestFailedMigrationIsNotRecorded(t *testing.T) {
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	fsys := fstest.MapFS{"V1__broken.sql": {Data: []byte(`CREATE TABLE broken (`)}}
	if err := ApplyFS(conn, fsys); err == nil {
		t.Fatal("expected error")
	}
	names, err := Applied(conn)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("broken migration recorded: %v", names)
	}
}

func TestParseVersion(t *testing.T) {
	cases := map[string]string{
		"V1__init.sql":     "1",
		"V12__x.sql":       "12",
		"init.sql":         "",
		"Vnoseparator.sql": "",
	}
	for name, want := range cases {
		if got := parseVersion(name); got != want {
			t.Errorf("parseVersion(%q) = %q, want %q", name, got, want)
		}
	}
}
