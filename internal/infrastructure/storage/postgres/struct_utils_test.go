package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nexa/internal/core/entity"
	"nexa/internal/core/id"
)

type MockDocument struct {
	entity.Document
	ClientName string    `db:"client_name" json:"clientName"`
	IssueDate  time.Time `db:"issue_date" json:"issueDate"`
	Internal   string    `db:"-" json:"-"`
	NoTag      string
}

func TestExtractDBColumns_DocumentFields(t *testing.T) {
	cols := ExtractDBColumns[MockDocument]()

	expectedCols := []string{
		"id", "version", "owner_id", "number", "status",
		"created_at", "updated_at", "client_name", "issue_date",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expectedCols))
}

func TestStructToMap_FlattensEmbedded(t *testing.T) {
	now := time.Now().UTC()
	doc := MockDocument{
		Document: entity.Document{
			BaseEntity: entity.BaseEntity{
				ID:      id.New(),
				Version: 3,
			},
			OwnerID:   id.New(),
			Number:    "FATT-0001",
			Status:    "draft",
			CreatedAt: now,
			UpdatedAt: now,
		},
		ClientName: "ACME Srl",
		IssueDate:  now,
		Internal:   "skipped",
		NoTag:      "skipped",
	}

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, doc.OwnerID, m["owner_id"])
	assert.Equal(t, "FATT-0001", m["number"])
	assert.Equal(t, "draft", m["status"])
	assert.Equal(t, "ACME Srl", m["client_name"])
	assert.Equal(t, now, m["issue_date"])

	_, hasInternal := m["-"]
	assert.False(t, hasInternal)
	assert.Len(t, m, 9)
}

func TestStructToMap_PointerInput(t *testing.T) {
	doc := &MockDocument{ClientName: "Pointer"}
	m := StructToMap(doc)
	assert.Equal(t, "Pointer", m["client_name"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
