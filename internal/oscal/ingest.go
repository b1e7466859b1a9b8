package oscal

import (
	"errors"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"

	"ctldb/internal/storage"
)

// Ingestor drives one ingestion pass over a parsed document. All writes go
// through a single storage transaction owned by the caller, so a failed pass
// leaves no partial rows behind.
type Ingestor struct {
	tx  *storage.Tx
	log *log.Logger
}

func NewIngestor(tx *storage.Tx, logger *log.Logger) *Ingestor {
	return &Ingestor{tx: tx, log: logger}
}

// IngestCatalog normalizes a catalog document: control families, the two-pass
// parameter resolution, every group's controls with their satellite rows, and
// the back-matter resources.
func (in *Ingestor) IngestCatalog(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return errors.New("catalog document has no root element")
	}

	if err := in.extractFamilies(root); err != nil {
		return err
	}

	owners := controlParamOwners(root)
	labels, err := in.resolveParams(root, owners)
	if err != nil {
		return err
	}

	if err := in.walkGroups(root, labels); err != nil {
		return err
	}

	return in.extractResources(root)
}
