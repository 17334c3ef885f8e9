// Package bgi reads and writes the BGEN companion index format: a small
// SQLite-backed relational store mapping variant descriptors to their
// file offsets so a Reader can seek directly to a variant instead of
// scanning sequentially.
package bgi

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a lookup matches no rows.
	ErrNotFound = errors.New("bgi: not found")
	// ErrAmbiguous is returned when an exact-match lookup matches more
	// than one row.
	ErrAmbiguous = errors.New("bgi: ambiguous match")
)

// Record is one row of the Variant table.
type Record struct {
	Chromosome        string
	Position          uint32
	RSID              string
	Allele1           string
	Allele2           string
	FileStartPosition uint64
	SizeInBytes       uint32
	NumberOfAlleles   uint16
}

// Index is an open handle on a .bgi file.
type Index struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS Variant (
	chromosome TEXT,
	position INTEGER,
	rsid TEXT,
	allele1 TEXT,
	allele2 TEXT,
	file_start_position INTEGER,
	size_in_bytes INTEGER,
	number_of_alleles INTEGER
);
CREATE INDEX IF NOT EXISTS idx_variant_rsid ON Variant(rsid);
CREATE INDEX IF NOT EXISTS idx_variant_position ON Variant(chromosome, position);
`

// Open opens an existing .bgi file at path for reading.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrapf(err, "bgi: open %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "bgi: open %s", path)
	}
	return &Index{db: db}, nil
}

// Create creates a new .bgi file at path, overwriting any existing file,
// and prepares it to receive Insert calls.
func Create(path string) (*Index, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "bgi: create %s", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "bgi: create %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "bgi: create schema in %s", path)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database handle.
func (x *Index) Close() error {
	return x.db.Close()
}

// Insert appends a record to the index. Callers typically call this once
// per variant appended by a Writer, in file order.
func (x *Index) Insert(r Record) error {
	_, err := x.db.Exec(
		`INSERT INTO Variant (chromosome, position, rsid, allele1, allele2,
			file_start_position, size_in_bytes, number_of_alleles)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Chromosome, r.Position, r.RSID, r.Allele1, r.Allele2,
		r.FileStartPosition, r.SizeInBytes, r.NumberOfAlleles)
	if err != nil {
		return errors.Wrap(err, "bgi: insert")
	}
	return nil
}

// ByRSID returns the file offset of the variant with the given rsid. It
// errors with ErrNotFound or ErrAmbiguous if there isn't exactly one
// match.
func (x *Index) ByRSID(rsid string) (uint64, error) {
	return x.exactOffset(`SELECT file_start_position FROM Variant WHERE rsid = ?`, rsid)
}

// ByPosition returns the file offset of the variant at the given
// position. It errors with ErrNotFound or ErrAmbiguous if there isn't
// exactly one match.
func (x *Index) ByPosition(pos uint32) (uint64, error) {
	return x.exactOffset(`SELECT file_start_position FROM Variant WHERE position = ?`, pos)
}

func (x *Index) exactOffset(query string, arg interface{}) (uint64, error) {
	rows, err := x.db.Query(query, arg)
	if err != nil {
		return 0, errors.Wrap(err, "bgi: query")
	}
	defer rows.Close()

	var offsets []uint64
	for rows.Next() {
		var off uint64
		if err := rows.Scan(&off); err != nil {
			return 0, errors.Wrap(err, "bgi: scan")
		}
		offsets = append(offsets, off)
	}
	if err := rows.Err(); err != nil {
		return 0, errors.Wrap(err, "bgi: scan")
	}
	switch len(offsets) {
	case 0:
		return 0, ErrNotFound
	case 1:
		return offsets[0], nil
	default:
		return 0, ErrAmbiguous
	}
}

// ByOrdinal returns the file offset of the i-th (0-based) row, ordered by
// rowid (insertion order).
func (x *Index) ByOrdinal(i int) (uint64, error) {
	row := x.db.QueryRow(`SELECT file_start_position FROM Variant ORDER BY rowid LIMIT 1 OFFSET ?`, i)
	var off uint64
	if err := row.Scan(&off); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, errors.Wrap(err, "bgi: scan")
	}
	return off, nil
}

// Range performs an inclusive range scan by chromosome and optional
// [start, stop] position bounds, ordered by position.
func (x *Index) Range(chromosome string, start, stop *uint32) ([]Record, error) {
	query := `SELECT chromosome, position, rsid, allele1, allele2,
		file_start_position, size_in_bytes, number_of_alleles
		FROM Variant WHERE chromosome = ?`
	args := []interface{}{chromosome}
	if start != nil {
		query += " AND position >= ?"
		args = append(args, *start)
	}
	if stop != nil {
		query += " AND position <= ?"
		args = append(args, *stop)
	}
	query += " ORDER BY position"

	rows, err := x.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "bgi: range query")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Chromosome, &r.Position, &r.RSID, &r.Allele1, &r.Allele2,
			&r.FileStartPosition, &r.SizeInBytes, &r.NumberOfAlleles); err != nil {
			return nil, errors.Wrap(err, "bgi: scan")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// bulkStrings runs a single-column SELECT and collects the string results,
// backing RSIDs/Chromosomes.
func (x *Index) bulkStrings(column string) ([]string, error) {
	rows, err := x.db.Query(fmt.Sprintf(`SELECT %s FROM Variant ORDER BY rowid`, column))
	if err != nil {
		return nil, errors.Wrap(err, "bgi: bulk query")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, "bgi: scan")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RSIDs returns every rsid in the index, in file order.
func (x *Index) RSIDs() ([]string, error) { return x.bulkStrings("rsid") }

// Chromosomes returns every chromosome in the index, in file order.
func (x *Index) Chromosomes() ([]string, error) { return x.bulkStrings("chromosome") }

// Positions returns every position in the index, in file order.
func (x *Index) Positions() ([]uint32, error) {
	rows, err := x.db.Query(`SELECT position FROM Variant ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "bgi: bulk query")
	}
	defer rows.Close()
	var out []uint32
	for rows.Next() {
		var p uint32
		if err := rows.Scan(&p); err != nil {
			return nil, errors.Wrap(err, "bgi: scan")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
