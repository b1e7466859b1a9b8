package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"ctldb/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS controls (
  control_id TEXT PRIMARY KEY,
  catalog_id TEXT,
  class TEXT,
  title TEXT,
  label TEXT,
  statement TEXT
);
CREATE INDEX IF NOT EXISTS idx_controls_catalog ON controls(catalog_id);

CREATE TABLE IF NOT EXISTS parameters (
  parameter_id TEXT PRIMARY KEY,
  control_id TEXT,
  label TEXT,
  guideline TEXT
);
CREATE INDEX IF NOT EXISTS idx_parameters_control ON parameters(control_id);

CREATE TABLE IF NOT EXISTS parts (
  part_id TEXT PRIMARY KEY,
  control_id TEXT,
  name TEXT,
  prose TEXT,
  "order" TEXT
);
CREATE INDEX IF NOT EXISTS idx_parts_control ON parts(control_id);

CREATE TABLE IF NOT EXISTS props (
  prop_id TEXT PRIMARY KEY,
  control_id TEXT,
  name TEXT,
  value TEXT,
  ns TEXT
);
CREATE INDEX IF NOT EXISTS idx_props_control ON props(control_id);

CREATE TABLE IF NOT EXISTS links (
  link_id TEXT PRIMARY KEY,
  control_id TEXT,
  href TEXT,
  rel TEXT,
  media_type TEXT
);
CREATE INDEX IF NOT EXISTS idx_links_control ON links(control_id);

CREATE TABLE IF NOT EXISTS control_relations (
  parent_control_id TEXT,
  child_control_id TEXT,
  PRIMARY KEY (parent_control_id, child_control_id)
);

CREATE TABLE IF NOT EXISTS resources (
  uuid TEXT PRIMARY KEY,
  title TEXT,
  location TEXT,
  citation TEXT
);

CREATE TABLE IF NOT EXISTS baselines (
  baseline_id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  title TEXT,
  last_modified TEXT,
  party_details TEXT,
  version TEXT
);

CREATE TABLE IF NOT EXISTS baseline_controls (
  baseline_id INTEGER,
  control_id TEXT,
  PRIMARY KEY (baseline_id, control_id)
);

CREATE TABLE IF NOT EXISTS control_families (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  family_code TEXT NOT NULL UNIQUE,
  family_name TEXT NOT NULL,
  description TEXT,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// Begin starts the transaction carrying one whole ingestion pass. All writes
// for a document go through the returned Tx and commit as a single unit.
func (d *DB) Begin() (*Tx, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

func (t *Tx) InsertControl(c internal.ControlRow) error {
	_, err := t.tx.Exec(`
INSERT INTO controls (control_id, catalog_id, class, title, label, statement)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(control_id) DO NOTHING
`, c.ID, c.CatalogID, c.Class, c.Title, c.Label, c.Statement)
	return err
}

func (t *Tx) InsertParameter(p internal.ParameterRow) error {
	_, err := t.tx.Exec(`
INSERT INTO parameters (parameter_id, control_id, label, guideline)
VALUES (?, ?, ?, ?)
ON CONFLICT(parameter_id) DO NOTHING
`, p.ID, p.ControlID, p.Label, p.Guideline)
	return err
}

func (t *Tx) InsertPart(p internal.PartRow) error {
	_, err := t.tx.Exec(`
INSERT INTO parts (part_id, control_id, name, prose, "order")
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(part_id) DO NOTHING
`, p.ID, p.ControlID, p.Name, p.Prose, p.Order)
	return err
}

func (t *Tx) InsertProp(p internal.PropRow) error {
	_, err := t.tx.Exec(`
INSERT INTO props (prop_id, control_id, name, value, ns)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(prop_id) DO NOTHING
`, p.ID, p.ControlID, p.Name, p.Value, p.Ns)
	return err
}

func (t *Tx) InsertLink(l internal.LinkRow) error {
	_, err := t.tx.Exec(`
INSERT INTO links (link_id, control_id, href, rel, media_type)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(link_id) DO NOTHING
`, l.ID, l.ControlID, l.Href, l.Rel, l.MediaType)
	return err
}

func (t *Tx) InsertControlRelation(parentID, childID string) error {
	_, err := t.tx.Exec(`
INSERT INTO control_relations (parent_control_id, child_control_id)
VALUES (?, ?)
ON CONFLICT(parent_control_id, child_control_id) DO NOTHING
`, parentID, childID)
	return err
}

func (t *Tx) UpsertResource(r internal.ResourceRow) error {
	_, err := t.tx.Exec(`
INSERT INTO resources (uuid, title, location, citation)
VALUES (?, ?, ?, ?)
ON CONFLICT(uuid) DO UPDATE SET
  title=excluded.title,
  location=excluded.location,
  citation=excluded.citation
`, r.UUID, r.Title, r.Location, r.Citation)
	return err
}

func (t *Tx) InsertControlFamily(f internal.ControlFamilyRow) error {
	_, err := t.tx.Exec(`
INSERT INTO control_families (family_code, family_name, description)
VALUES (?, ?, ?)
ON CONFLICT(family_code) DO NOTHING
`, f.Code, f.Name, f.Description)
	return err
}

func (t *Tx) InsertBaseline(b internal.BaselineRow) (int64, error) {
	result, err := t.tx.Exec(`
INSERT INTO baselines (name, title, last_modified, party_details, version)
VALUES (?, ?, ?, ?, ?)
`, b.Name, b.Title, b.LastModified, b.PartyDetails, b.Version)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (t *Tx) InsertBaselineControl(baselineID int64, controlID string) error {
	_, err := t.tx.Exec(`
INSERT INTO baseline_controls (baseline_id, control_id)
VALUES (?, ?)
ON CONFLICT(baseline_id, control_id) DO NOTHING
`, baselineID, controlID)
	return err
}

func (d *DB) GetControl(id string) (*internal.ControlRow, error) {
	var row internal.ControlRow
	err := d.conn.QueryRow(`
SELECT control_id, catalog_id, class, title, label, statement
FROM controls WHERE control_id = ?
`, id).Scan(&row.ID, &row.CatalogID, &row.Class, &row.Title, &row.Label, &row.Statement)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListControlsByCatalog(catalogID string) ([]internal.ControlRow, error) {
	rows, err := d.conn.Query(`
SELECT control_id, catalog_id, class, title, label, statement
FROM controls WHERE catalog_id = ? ORDER BY control_id ASC
`, catalogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ControlRow
	for rows.Next() {
		var row internal.ControlRow
		if err := rows.Scan(&row.ID, &row.CatalogID, &row.Class, &row.Title, &row.Label, &row.Statement); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) ListParametersByControl(controlID string) ([]internal.ParameterRow, error) {
	rows, err := d.conn.Query(`
SELECT parameter_id, control_id, label, guideline
FROM parameters WHERE control_id = ? ORDER BY parameter_id ASC
`, controlID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ParameterRow
	for rows.Next() {
		var row internal.ParameterRow
		if err := rows.Scan(&row.ID, &row.ControlID, &row.Label, &row.Guideline); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) GetResource(uuid string) (*internal.ResourceRow, error) {
	var row internal.ResourceRow
	err := d.conn.QueryRow(`
SELECT uuid, title, location, citation FROM resources WHERE uuid = ?
`, uuid).Scan(&row.UUID, &row.Title, &row.Location, &row.Citation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListControlFamilies() ([]internal.ControlFamilyRow, error) {
	rows, err := d.conn.Query(`
SELECT family_code, family_name, description FROM control_families ORDER BY family_code ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ControlFamilyRow
	for rows.Next() {
		var row internal.ControlFamilyRow
		if err := rows.Scan(&row.Code, &row.Name, &row.Description); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) ListChildControlIDs(parentID string) ([]string, error) {
	return d.listIDs(`
SELECT child_control_id FROM control_relations WHERE parent_control_id = ? ORDER BY child_control_id ASC
`, parentID)
}

func (d *DB) ListBaselineControlIDs(baselineID int64) ([]string, error) {
	return d.listIDs(`
SELECT control_id FROM baseline_controls WHERE baseline_id = ? ORDER BY control_id ASC
`, baselineID)
}

func (d *DB) GetBaselineByName(name string) (int64, *internal.BaselineRow, error) {
	var id int64
	var row internal.BaselineRow
	err := d.conn.QueryRow(`
SELECT baseline_id, name, title, last_modified, party_details, version
FROM baselines WHERE name = ? ORDER BY baseline_id DESC LIMIT 1
`, name).Scan(&id, &row.Name, &row.Title, &row.LastModified, &row.PartyDetails, &row.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return id, &row, nil
}

func (d *DB) CountRows(table string) (int, error) {
	// table names come from code, never from user input
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n)
	return n, err
}

func (d *DB) listIDs(query string, args ...any) ([]string, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
