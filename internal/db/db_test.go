package db

import "testing"

func TestRebind(t *testing.T) {
	sqlite := New(nil, "sqlite3")
	pg := New(nil, "postgres")

	query := "UPDATE t SET a = ? WHERE b = ? AND c IN (" + placeholders(3) + ")"

	if got := sqlite.rebind(query); got != query {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	want := "UPDATE t SET a = $1 WHERE b = $2 AND c IN ($3,$4,$5)"
	if got := pg.rebind(query); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
	if got := pg.WithTx(nil).rebind("?"); got != "$1" {
		t.Errorf("WithTx lost dialect: %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	for n, want := range map[int]string{0: "", 1: "?", 4: "?,?,?,?"} {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}
