package document_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"

	"nexa/internal/core/apperror"
	"nexa/internal/core/id"
)

func newTestRepo() *BaseDocumentRepo[any] {
	cols := []string{"id", "owner_id", "number", "status", "issue_date", "created_at"}
	return NewBaseDocumentRepo[any](nil, "test_docs", "test document", cols, func() any { return nil })
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	cases := []struct {
		orderBy string
		want    string
	}{
		{"", "created_at DESC"},
		{"   ", "created_at DESC"},
		{"number", "number ASC"},
		{"+number", "number ASC"},
		{"-issue_date", "issue_date DESC"},
		{"-created_at", "created_at DESC"},
	}
	for _, tc := range cases {
		got, err := repo.parseOrderBy(tc.orderBy)
		if err != nil {
			t.Fatalf("parseOrderBy(%q) failed: %v", tc.orderBy, err)
		}
		if got != tc.want {
			t.Errorf("parseOrderBy(%q) = %q, want %q", tc.orderBy, got, tc.want)
		}
	}
}

func TestParseOrderByRejectsUnknownColumns(t *testing.T) {
	repo := newTestRepo()

	// Anything outside the select column allowlist must never reach the
	// ORDER BY clause.
	for _, orderBy := range []string{"secret_col", "-1; DROP TABLE test_docs", "-"} {
		_, err := repo.parseOrderBy(orderBy)
		if !apperror.IsValidation(err) {
			t.Errorf("parseOrderBy(%q): got %v, want validation error", orderBy, err)
		}
	}
}

func TestSearchConditionsCoverFreeTextColumns(t *testing.T) {
	cases := []struct {
		name string
		cond squirrel.Or
		want string
	}{
		{
			"invoice",
			invoiceSearchConditions("acme"),
			"(number ILIKE ? OR client_name ILIKE ? OR notes ILIKE ?)",
		},
		{
			"quote",
			quoteSearchConditions("acme"),
			"(number ILIKE ? OR client_name ILIKE ? OR title ILIKE ? OR notes ILIKE ?)",
		},
	}
	for _, tc := range cases {
		sql, args, err := tc.cond.ToSql()
		if err != nil {
			t.Fatalf("%s: ToSql failed: %v", tc.name, err)
		}
		if sql != tc.want {
			t.Errorf("%s SQL mismatch\nwant: %s\ngot:  %s", tc.name, tc.want, sql)
		}
		for i, arg := range args {
			if arg != "%acme%" {
				t.Errorf("%s: args[%d] = %v, want %%acme%%", tc.name, i, arg)
			}
		}
	}
}

func TestBaseSelectIsOwnerScoped(t *testing.T) {
	repo := newTestRepo()
	ownerID := id.New()

	sql, args, err := repo.baseSelect(ownerID).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	want := "SELECT id, owner_id, number, status, issue_date, created_at FROM test_docs WHERE owner_id = $1"
	if sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}
	if len(args) != 1 || args[0] != ownerID {
		t.Errorf("args = %v, want [%s]", args, ownerID)
	}
}
