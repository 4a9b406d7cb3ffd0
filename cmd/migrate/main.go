// Package main applies the database schema.
// Usage: migrate up
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const schema = `
CREATE TABLE IF NOT EXISTS invoices (
    id                 UUID PRIMARY KEY,
    version            INT NOT NULL DEFAULT 1,
    owner_id           UUID NOT NULL,
    number             TEXT NOT NULL,
    status             TEXT NOT NULL,
    client_id          UUID NOT NULL,
    client_name        TEXT NOT NULL DEFAULT '',
    client_country     TEXT NOT NULL DEFAULT '',
    client_vat_number  TEXT NOT NULL DEFAULT '',
    issue_date         DATE NOT NULL,
    due_date           DATE NOT NULL,
    currency           TEXT NOT NULL DEFAULT 'EUR',
    subtotal           NUMERIC(14,2) NOT NULL DEFAULT 0,
    tax_amount         NUMERIC(14,2) NOT NULL DEFAULT 0,
    withholding_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
    total_amount       NUMERIC(14,2) NOT NULL DEFAULT 0,
    paid_amount        NUMERIC(14,2) NOT NULL DEFAULT 0,
    calculation_method TEXT NOT NULL DEFAULT '',
    calculation_note   TEXT NOT NULL DEFAULT '',
    notes              TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT invoices_owner_number_uniq UNIQUE (owner_id, number)
);
CREATE INDEX IF NOT EXISTS invoices_owner_status_idx ON invoices (owner_id, status);
CREATE INDEX IF NOT EXISTS invoices_owner_due_idx ON invoices (owner_id, due_date);

CREATE TABLE IF NOT EXISTS invoice_items (
    line_id          UUID PRIMARY KEY,
    invoice_id       UUID NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
    line_no          INT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    quantity         NUMERIC(14,4) NOT NULL DEFAULT 0,
    unit_price       NUMERIC(14,4) NOT NULL DEFAULT 0,
    discount_percent NUMERIC(7,4) NOT NULL DEFAULT 0,
    discount_amount  NUMERIC(14,2) NOT NULL DEFAULT 0,
    iva_rate         NUMERIC(7,4) NOT NULL DEFAULT 0,
    withholding_rate NUMERIC(7,4) NOT NULL DEFAULT 0,
    reverse_charge   BOOLEAN NOT NULL DEFAULT FALSE,
    exempt           BOOLEAN NOT NULL DEFAULT FALSE,
    amount           NUMERIC(14,2) NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS invoice_items_invoice_idx ON invoice_items (invoice_id);

CREATE TABLE IF NOT EXISTS quotes (
    id                   UUID PRIMARY KEY,
    version              INT NOT NULL DEFAULT 1,
    owner_id             UUID NOT NULL,
    number               TEXT NOT NULL,
    status               TEXT NOT NULL,
    client_id            UUID NOT NULL,
    client_name          TEXT NOT NULL DEFAULT '',
    client_country       TEXT NOT NULL DEFAULT '',
    client_vat_number    TEXT NOT NULL DEFAULT '',
    title                TEXT NOT NULL DEFAULT '',
    issue_date           DATE NOT NULL,
    validity_days        INT NOT NULL DEFAULT 30,
    expiry_date          DATE NOT NULL,
    currency             TEXT NOT NULL DEFAULT 'EUR',
    subtotal             NUMERIC(14,2) NOT NULL DEFAULT 0,
    tax_amount           NUMERIC(14,2) NOT NULL DEFAULT 0,
    withholding_amount   NUMERIC(14,2) NOT NULL DEFAULT 0,
    total_amount         NUMERIC(14,2) NOT NULL DEFAULT 0,
    calculation_method   TEXT NOT NULL DEFAULT '',
    calculation_note     TEXT NOT NULL DEFAULT '',
    accepted_at          TIMESTAMPTZ,
    converted_invoice_id UUID,
    notes                TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT quotes_owner_number_uniq UNIQUE (owner_id, number)
);
CREATE INDEX IF NOT EXISTS quotes_owner_status_idx ON quotes (owner_id, status);
CREATE INDEX IF NOT EXISTS quotes_owner_expiry_idx ON quotes (owner_id, expiry_date);

CREATE TABLE IF NOT EXISTS quote_items (
    line_id          UUID PRIMARY KEY,
    quote_id         UUID NOT NULL REFERENCES quotes (id) ON DELETE CASCADE,
    line_no          INT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    quantity         NUMERIC(14,4) NOT NULL DEFAULT 0,
    unit_price       NUMERIC(14,4) NOT NULL DEFAULT 0,
    discount_percent NUMERIC(7,4) NOT NULL DEFAULT 0,
    discount_amount  NUMERIC(14,2) NOT NULL DEFAULT 0,
    iva_rate         NUMERIC(7,4) NOT NULL DEFAULT 0,
    withholding_rate NUMERIC(7,4) NOT NULL DEFAULT 0,
    reverse_charge   BOOLEAN NOT NULL DEFAULT FALSE,
    exempt           BOOLEAN NOT NULL DEFAULT FALSE,
    optional         BOOLEAN NOT NULL DEFAULT FALSE,
    amount           NUMERIC(14,2) NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS quote_items_quote_idx ON quote_items (quote_id);

CREATE TABLE IF NOT EXISTS payments (
    id         UUID PRIMARY KEY,
    owner_id   UUID NOT NULL,
    invoice_id UUID NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
    amount     NUMERIC(14,2) NOT NULL,
    paid_at    TIMESTAMPTZ NOT NULL,
    method     TEXT NOT NULL DEFAULT '',
    reference  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS payments_invoice_idx ON payments (owner_id, invoice_id);

CREATE TABLE IF NOT EXISTS events (
    id          UUID PRIMARY KEY,
    owner_id    UUID NOT NULL,
    type        TEXT NOT NULL,
    document_id UUID NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    starts_at   TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT events_document_type_uniq UNIQUE (document_id, type)
);
CREATE INDEX IF NOT EXISTS events_owner_starts_idx ON events (owner_id, starts_at);

CREATE TABLE IF NOT EXISTS email_activity (
    id            UUID PRIMARY KEY,
    owner_id      UUID NOT NULL,
    client_id     UUID NOT NULL,
    client_name   TEXT NOT NULL DEFAULT '',
    invoice_id    UUID,
    quote_id      UUID,
    type          TEXT NOT NULL,
    status        TEXT NOT NULL,
    template_type TEXT NOT NULL DEFAULT '',
    recipient     TEXT NOT NULL,
    subject       TEXT NOT NULL DEFAULT '',
    sent_at       TIMESTAMPTZ NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS email_activity_owner_sent_idx ON email_activity (owner_id, sent_at DESC);
CREATE INDEX IF NOT EXISTS email_activity_owner_client_idx ON email_activity (owner_id, client_id);

CREATE TABLE IF NOT EXISTS audit_log (
    id                 UUID PRIMARY KEY,
    entity_type        TEXT NOT NULL,
    entity_id          UUID NOT NULL,
    action             TEXT NOT NULL,
    owner_id           TEXT NOT NULL DEFAULT '',
    owner_email        TEXT NOT NULL DEFAULT '',
    changes            JSONB,
    changes_compressed BYTEA,
    compression_algo   TEXT NOT NULL DEFAULT 'none',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS audit_log_entity_idx ON audit_log (entity_type, entity_id, created_at DESC);
`

func main() {
	if len(os.Args) < 2 || os.Args[1] != "up" {
		fmt.Println("Usage: migrate up")
		os.Exit(1)
	}

	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("required environment variable DATABASE_URL not set")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Printf("failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		fmt.Printf("failed to apply schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("schema applied")
}
