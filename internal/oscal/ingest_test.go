package oscal

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"

	"ctldb/internal/storage"
)

const testCatalog = `<?xml version="1.0" encoding="UTF-8"?>
<catalog xmlns="http://csrc.nist.gov/ns/oscal/1.0" uuid="c3afaeb9-4eb6-4e9c-9e67-2f0a2d5e0000">
  <group id="ac" class="family">
    <title>Access Control</title>
    <part name="overview">Policies governing system access.</part>
    <control id="ac-1" class="SP800-53">
      <title>Policy and Procedures</title>
      <prop name="label" value="AC-01" class="zero-padded"/>
      <prop name="sort-id" value="ac-01"/>
      <link href="#ref-a" rel="reference"/>
      <param id="ac-1_prm_1">
        <label>frequency</label>
        <guideline>
          <p>Pick something sensible.</p>
        </guideline>
      </param>
      <part id="ac-1_smt" name="statement">
        <prop name="label" value="a."/>
        <p>Review access policy <insert type="param" id-ref="ac-1_prm_1"/> thereafter.</p>
        <part id="ac-1_smt.1" name="item">
          <prop name="label" value="1."/>
          <p>Document exceptions.</p>
        </part>
      </part>
      <control id="ac-1.1" class="SP800-53-enhancement">
        <title>Automation Support</title>
        <control id="ac-1.1.1" class="SP800-53-enhancement">
          <title>Deeply Nested</title>
        </control>
      </control>
    </control>
  </group>
  <back-matter>
    <resource uuid="ref-a">
      <title>Source Document</title>
      <rlink href="https://example.org/source.pdf"/>
      <citation>
        <text>Cite <em>it</em> properly.</text>
      </citation>
    </resource>
  </back-matter>
</catalog>`

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func runCatalog(t *testing.T, db *storage.DB, xml string) {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatalf("parse: %v", err)
	}
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := NewIngestor(tx, log.New(io.Discard)).IngestCatalog(doc); err != nil {
		_ = tx.Rollback()
		t.Fatalf("ingest: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestIngestCatalogControlAndStatement(t *testing.T) {
	db := openTestDB(t)
	runCatalog(t, db, testCatalog)

	control, err := db.GetControl("ac-1")
	if err != nil || control == nil {
		t.Fatalf("get: %v %v", control, err)
	}
	if control.CatalogID == nil || *control.CatalogID != "ac" {
		t.Fatalf("catalog id: %v", control.CatalogID)
	}
	if control.Label == nil || *control.Label != "AC-01" {
		t.Fatalf("label: %v", control.Label)
	}
	if control.Statement == nil {
		t.Fatalf("no statement")
	}
	want := "a. Review access policy <frequency> thereafter.\n    1. Document exceptions."
	if *control.Statement != want {
		t.Fatalf("statement %q want %q", *control.Statement, want)
	}
}

func TestIngestCatalogParameters(t *testing.T) {
	db := openTestDB(t)
	runCatalog(t, db, testCatalog)

	params, err := db.ListParametersByControl("ac-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(params) != 1 {
		t.Fatalf("len=%d", len(params))
	}
	if params[0].Label != "frequency" {
		t.Fatalf("label %q", params[0].Label)
	}
	if params[0].Guideline == nil || *params[0].Guideline != "Pick something sensible." {
		t.Fatalf("guideline %v", params[0].Guideline)
	}
}

func TestIngestCatalogRelationsImmediateOnly(t *testing.T) {
	db := openTestDB(t)
	runCatalog(t, db, testCatalog)

	children, err := db.ListChildControlIDs("ac-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(children) != 1 || children[0] != "ac-1.1" {
		t.Fatalf("ac-1 children: %v", children)
	}

	children, err = db.ListChildControlIDs("ac-1.1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(children) != 1 || children[0] != "ac-1.1.1" {
		t.Fatalf("ac-1.1 children: %v", children)
	}
}

func TestIngestCatalogFamilies(t *testing.T) {
	db := openTestDB(t)
	runCatalog(t, db, testCatalog)

	families, err := db.ListControlFamilies()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(families) != 1 || families[0].Code != "ac" || families[0].Name != "Access Control" {
		t.Fatalf("families: %+v", families)
	}
	if families[0].Description == nil || !strings.Contains(*families[0].Description, "Policies governing") {
		t.Fatalf("description: %v", families[0].Description)
	}
}

func TestIngestCatalogResources(t *testing.T) {
	db := openTestDB(t)
	runCatalog(t, db, testCatalog)

	res, err := db.GetResource("ref-a")
	if err != nil || res == nil {
		t.Fatalf("get: %v %v", res, err)
	}
	if res.Title == nil || *res.Title != "Source Document" {
		t.Fatalf("title: %v", res.Title)
	}
	if res.Location == nil || *res.Location != "https://example.org/source.pdf" {
		t.Fatalf("location: %v", res.Location)
	}
	if res.Citation == nil || *res.Citation != "Cite it properly." {
		t.Fatalf("citation: %v", res.Citation)
	}
}

func TestIngestCatalogIdempotent(t *testing.T) {
	db := openTestDB(t)
	runCatalog(t, db, testCatalog)

	counts := map[string]int{}
	for _, table := range []string{"controls", "parameters", "parts", "props", "links", "control_relations", "resources"} {
		n, err := db.CountRows(table)
		if err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		counts[table] = n
	}

	runCatalog(t, db, testCatalog)

	for table, before := range counts {
		after, err := db.CountRows(table)
		if err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if after != before {
			t.Fatalf("%s grew on re-ingest: %d -> %d", table, before, after)
		}
	}
}

func TestIngestCatalogResourceUpsert(t *testing.T) {
	db := openTestDB(t)
	runCatalog(t, db, testCatalog)

	updated := strings.Replace(testCatalog, "<title>Source Document</title>", "<title>Renamed Document</title>", 1)
	runCatalog(t, db, updated)

	res, err := db.GetResource("ref-a")
	if err != nil || res == nil {
		t.Fatalf("get: %v %v", res, err)
	}
	if res.Title == nil || *res.Title != "Renamed Document" {
		t.Fatalf("title not overwritten: %v", res.Title)
	}
	n, err := db.CountRows("resources")
	if err != nil || n != 1 {
		t.Fatalf("resources rows: %d %v", n, err)
	}
}

func TestIngestCatalogSkipsControlWithoutID(t *testing.T) {
	db := openTestDB(t)
	runCatalog(t, db, `
<catalog>
  <group id="xx">
    <title>Broken</title>
    <control class="SP800-53"><title>No identifier</title></control>
  </group>
</catalog>`)

	n, err := db.CountRows("controls")
	if err != nil || n != 0 {
		t.Fatalf("controls rows: %d %v", n, err)
	}
}
