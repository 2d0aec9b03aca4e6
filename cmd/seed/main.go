// Command seed is the development bootstrap tool named in spec.md §1
// ("Table schema provisioning and synthetic data seeding... not a
// runtime concern"): it creates the mortgage_document table and loads
// a Parquet fixture into it, so a developer can stand up a realistic
// dataset (a 22-column table) without hand-writing INSERT statements. It never
// runs as part of the streaming request path.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/parquet-go/parquet-go"
)

// mortgageDocumentRow mirrors internal/shapes.MortgageDocument's
// scalar column bindings; parquet struct tags name the column exactly as it
// appears in the fixture file and, after loading, in Postgres. The
// Tag_NN and Comment_NN columns are not loaded and stay NULL.
type mortgageDocumentRow struct {
	Id                  int64   `parquet:"Id"`
	DocumentType        string  `parquet:"DocumentType"`
	LoanNumber          string  `parquet:"LoanNumber"`
	Principal           string  `parquet:"Principal"` // decimal literal
	InterestRate        float64 `parquet:"InterestRate"`
	OriginationDate     string  `parquet:"OriginationDate"` // ISO-8601
	MaturityDate        string  `parquet:"MaturityDate"`
	IsEscrowed          bool    `parquet:"IsEscrowed"`
	ExternalRef         string  `parquet:"ExternalRef"`
	BorrowerName        string  `parquet:"BorrowerName"`
	BorrowerSSNLastFour string  `parquet:"BorrowerSSNLastFour"`
	BorrowerCreditScore int32   `parquet:"BorrowerCreditScore"`
	PropertyAddress     string  `parquet:"PropertyAddress"`
	PropertyCity        string  `parquet:"PropertyCity"`
	PropertyState       string  `parquet:"PropertyState"`
	PropertyZip         string  `parquet:"PropertyZip"`
	PropertyValue       string  `parquet:"PropertyValue"`
}

const createTableDDL = `
CREATE TABLE IF NOT EXISTS mortgage_document (
	"Id" BIGINT PRIMARY KEY,
	"DocumentType" TEXT,
	"LoanNumber" TEXT,
	"Principal" NUMERIC,
	"InterestRate" DOUBLE PRECISION,
	"OriginationDate" TIMESTAMPTZ,
	"MaturityDate" TIMESTAMPTZ,
	"IsEscrowed" BOOLEAN,
	"ExternalRef" UUID,
	"BorrowerName" TEXT,
	"BorrowerSSNLastFour" TEXT,
	"BorrowerCreditScore" INTEGER,
	"PropertyAddress" TEXT,
	"PropertyCity" TEXT,
	"PropertyState" CHAR(2),
	"PropertyZip" TEXT,
	"PropertyValue" NUMERIC,
	"Tag_01" TEXT,
	"Tag_02" TEXT,
	"Tag_03" TEXT,
	"Comment_01" TEXT,
	"Comment_02" TEXT
)`

const insertDML = `
INSERT INTO mortgage_document (
	"Id", "DocumentType", "LoanNumber", "Principal", "InterestRate",
	"OriginationDate", "MaturityDate", "IsEscrowed", "ExternalRef",
	"BorrowerName", "BorrowerSSNLastFour", "BorrowerCreditScore",
	"PropertyAddress", "PropertyCity", "PropertyState", "PropertyZip", "PropertyValue"
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT ("Id") DO NOTHING`

func main() {
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres connection string")
	fixture := flag.String("fixture", "mortgage_document.parquet", "path to the Parquet fixture to load")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("seed: -dsn (or DATABASE_URL) is required")
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatalf("seed: open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, createTableDDL); err != nil {
		log.Fatalf("seed: create table: %v", err)
	}

	n, err := loadFixture(ctx, db, *fixture)
	if err != nil {
		log.Fatalf("seed: load fixture: %v", err)
	}
	log.Printf("seed: loaded %d rows from %s", n, *fixture)
}

func loadFixture(ctx context.Context, db *sql.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := parquet.NewGenericReader[mortgageDocumentRow](f)
	defer reader.Close()

	stmt, err := db.PrepareContext(ctx, insertDML)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	rows := make([]mortgageDocumentRow, 256)
	total := 0
	for {
		n, err := reader.Read(rows)
		for _, r := range rows[:n] {
			if _, err := stmt.ExecContext(ctx,
				r.Id, r.DocumentType, r.LoanNumber, r.Principal, r.InterestRate,
				r.OriginationDate, r.MaturityDate, r.IsEscrowed, r.ExternalRef,
				r.BorrowerName, r.BorrowerSSNLastFour, r.BorrowerCreditScore,
				r.PropertyAddress, r.PropertyCity, r.PropertyState, r.PropertyZip, r.PropertyValue,
			); err != nil {
				return total, err
			}
			total++
		}
		if err != nil {
			break // io.EOF or a genuine read error; either way, stop.
		}
	}
	return total, nil
}
