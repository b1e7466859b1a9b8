package oscal

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"ctldb/internal"
	"ctldb/internal/util"
)

// extractControl emits one control row plus its satellite rows. Satellite
// extraction covers the whole subtree; statement assembly deliberately looks
// at direct child parts only.
func (in *Ingestor) extractControl(control *etree.Element, groupID string, labels map[string]string) error {
	controlID := control.SelectAttrValue("id", "")
	if controlID == "" {
		in.log.Warn("control missing id, skipping", "group", groupID)
		return nil
	}

	var zeroPadded *string
	for _, prop := range control.SelectElements("prop") {
		if prop.SelectAttrValue("name", "") == "label" && prop.SelectAttrValue("class", "") == "zero-padded" {
			zeroPadded = attrPtr(prop, "value")
		}
	}

	for i, part := range collectElements(control, "part", true) {
		row := internal.PartRow{
			ID:        satelliteID(controlID, "part", i),
			ControlID: controlID,
			Name:      attrPtr(part, "name"),
			Prose:     childTextPtr(part, "prose"),
			Order:     attrPtr(part, "order"),
		}
		if err := in.tx.InsertPart(row); err != nil {
			return err
		}
	}

	for i, prop := range collectElements(control, "prop", true) {
		row := internal.PropRow{
			ID:        satelliteID(controlID, "prop", i),
			ControlID: controlID,
			Name:      attrPtr(prop, "name"),
			Value:     attrPtr(prop, "value"),
			Ns:        attrPtr(prop, "ns"),
		}
		if err := in.tx.InsertProp(row); err != nil {
			return err
		}
	}

	for i, link := range collectElements(control, "link", true) {
		row := internal.LinkRow{
			ID:        satelliteID(controlID, "link", i),
			ControlID: controlID,
			Href:      attrPtr(link, "href"),
			Rel:       attrPtr(link, "rel"),
			MediaType: attrPtr(link, "media-type"),
		}
		if err := in.tx.InsertLink(row); err != nil {
			return err
		}
	}

	// relations link immediate parent/child pairs only
	for _, child := range collectElements(control, "control", false) {
		childID := child.SelectAttrValue("id", "")
		if childID == "" {
			continue
		}
		if childID == controlID {
			in.log.Warn("self-referencing control relation, skipping", "control", controlID)
			continue
		}
		if err := in.tx.InsertControlRelation(controlID, childID); err != nil {
			return err
		}
	}

	var statement *string
	for _, part := range control.SelectElements("part") {
		if part.SelectAttrValue("name", "") != "statement" {
			continue
		}
		statement = util.StringPtr(assembleStatement(part, labels))
	}

	row := internal.ControlRow{
		ID:        controlID,
		CatalogID: util.StringPtr(groupID),
		Class:     attrPtr(control, "class"),
		Title:     childTextPtr(control, "title"),
		Label:     zeroPadded,
		Statement: statement,
	}
	in.log.Info("control", "group", groupID, "id", controlID, "title", util.Deref(row.Title), "label", util.Deref(zeroPadded))
	return in.tx.InsertControl(row)
}

// assembleStatement flattens the statement part tree into one multi-line
// string: each fragment renders as "<label> <text>" trimmed, indented four
// spaces per depth level, lines joined with newlines.
func assembleStatement(part *etree.Element, labels map[string]string) string {
	fields := flattenPart(part, labels, nil, 0)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		line := strings.TrimSpace(f.label + " " + f.text)
		lines = append(lines, strings.Repeat("    ", f.depth)+line)
	}
	return strings.Join(lines, "\n")
}

// satelliteID derives a stable row id from the owning control, the element
// kind, and the occurrence ordinal within the control's subtree, so
// re-ingesting an unchanged document rewrites no satellite rows.
func satelliteID(controlID, kind string, ordinal int) string {
	name := controlID + "/" + kind + "/" + strconv.Itoa(ordinal)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
