package repository

import "testing"

func TestLikeOperatorByDialect(t *testing.T) {
	cases := map[string]string{
		"sqlite":     "LIKE",
		"":           "LIKE",
		"postgres":   "ILIKE",
		"PostgreSQL": "ILIKE",
	}
	for dialect, want := range cases {
		if got := likeOperatorByDialect(dialect); got != want {
			t.Fatalf("likeOperatorByDialect(%q)=%s want %s", dialect, got, want)
		}
	}
}

func TestDBDialectNameNil(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db should default to sqlite, got %s", got)
	}
}
