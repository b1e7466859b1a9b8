package oscal

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/beevik/etree"

	"ctldb/internal"
	"ctldb/internal/util"
)

// IngestProfile imports a baseline profile document: document metadata and
// party contacts into one baseline row, then one membership row per control
// id in the inclusion list, duplicates suppressed.
func (in *Ingestor) IngestProfile(doc *etree.Document, name string) error {
	root := doc.Root()
	if root == nil {
		return errors.New("profile document has no root element")
	}

	row := internal.BaselineRow{Name: name}
	parties := make([]internal.PartyInfo, 0)

	if metadata := root.SelectElement("metadata"); metadata != nil {
		row.Title = trimmedTextPtr(metadata.SelectElement("title"))
		row.LastModified = trimmedTextPtr(metadata.SelectElement("last-modified"))
		row.Version = trimmedTextPtr(metadata.SelectElement("version"))

		for _, party := range metadata.SelectElements("party") {
			parties = append(parties, extractParty(party))
		}
	}

	// an empty party list still serializes to a well-formed "[]"
	serialized, err := json.Marshal(parties)
	if err != nil {
		return err
	}
	row.PartyDetails = string(serialized)

	baselineID, err := in.tx.InsertBaseline(row)
	if err != nil {
		return err
	}

	included := 0
	for _, controlID := range includeControlIDs(root) {
		if err := in.tx.InsertBaselineControl(baselineID, controlID); err != nil {
			return err
		}
		included++
	}

	in.log.Info("baseline imported",
		"name", name,
		"title", util.Deref(row.Title),
		"lastModified", util.Deref(row.LastModified),
		"version", util.Deref(row.Version),
		"parties", len(parties),
		"controls", included,
	)
	return nil
}

// extractParty builds one party contact record. The address joins non-empty
// address lines, city, state, and postal code with ", ".
func extractParty(party *etree.Element) internal.PartyInfo {
	info := internal.PartyInfo{
		UUID: attrPtr(party, "uuid"),
		Type: attrPtr(party, "type"),
	}
	info.Name = trimmedTextPtr(party.SelectElement("name"))
	info.Email = trimmedTextPtr(party.SelectElement("email-address"))

	if address := party.SelectElement("address"); address != nil {
		var parts []string
		for _, line := range address.SelectElements("addr-line") {
			if line.Text() != "" {
				parts = append(parts, strings.TrimSpace(line.Text()))
			}
		}
		parts = append(parts, childText(address, "city"), childText(address, "state"), childText(address, "postal-code"))
		info.Address = util.StringPtr(strings.Join(parts, ", "))
	}
	return info
}

// includeControlIDs lists every with-id entry under any include-controls
// element, in document order.
func includeControlIDs(root *etree.Element) []string {
	var out []string
	for _, include := range descendants(root, "include-controls") {
		for _, withID := range include.SelectElements("with-id") {
			if id := strings.TrimSpace(withID.Text()); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
