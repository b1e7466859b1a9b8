package oscal

import (
	"strings"

	"github.com/beevik/etree"

	"ctldb/internal"
	"ctldb/internal/util"
)

// extractResources upserts one row per back-matter resource. Citation text
// prefers the citation's dedicated text element; without one the citation
// element's own recursive text is used. A document without back-matter is
// simply nothing to extract.
func (in *Ingestor) extractResources(root *etree.Element) error {
	backMatter := root.SelectElement("back-matter")
	if backMatter == nil {
		return nil
	}

	for _, resource := range backMatter.SelectElements("resource") {
		row := internal.ResourceRow{
			UUID: resource.SelectAttrValue("uuid", ""),
		}
		if title := resource.SelectElement("title"); title != nil && title.Text() != "" {
			row.Title = util.StringPtr(strings.TrimSpace(title.Text()))
		}
		if rlink := resource.SelectElement("rlink"); rlink != nil {
			row.Location = attrPtr(rlink, "href")
		}
		if citation := resource.SelectElement("citation"); citation != nil {
			if text := citation.SelectElement("text"); text != nil {
				row.Citation = util.StringPtr(strings.TrimSpace(fullText(text)))
			} else {
				row.Citation = util.StringPtr(strings.TrimSpace(fullText(citation)))
			}
		}

		if err := in.tx.UpsertResource(row); err != nil {
			return err
		}
		in.log.Info("resource", "uuid", row.UUID, "title", util.Deref(row.Title), "location", util.Deref(row.Location))
	}
	return nil
}
