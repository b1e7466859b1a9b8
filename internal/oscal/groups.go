package oscal

import (
	"github.com/beevik/etree"

	"ctldb/internal"
)

// walkGroups drives control extraction for every group in document order.
// Controls are found anywhere under a group, so nested sub-group controls are
// attributed to each enclosing group; the control insert is idempotent and
// first write wins.
func (in *Ingestor) walkGroups(root *etree.Element, labels map[string]string) error {
	for _, group := range descendants(root, "group") {
		groupID := group.SelectAttrValue("id", "")
		in.log.Info("group", "id", groupID, "title", childText(group, "title"))

		for _, control := range descendants(group, "control") {
			if err := in.extractControl(control, groupID, labels); err != nil {
				return err
			}
		}
	}
	return nil
}

// extractFamilies records one control-family row per top-level group whose
// class marks it as a family grouping.
func (in *Ingestor) extractFamilies(root *etree.Element) error {
	for _, group := range root.SelectElements("group") {
		if group.SelectAttrValue("class", "") != "family" {
			continue
		}
		code := group.SelectAttrValue("id", "")
		name := childText(group, "title")
		if code == "" || name == "" {
			continue
		}

		var description *string
		for _, part := range group.SelectElements("part") {
			if part.SelectAttrValue("name", "") == "overview" {
				if text := part.Text(); text != "" {
					description = &text
				}
				break
			}
		}

		row := internal.ControlFamilyRow{Code: code, Name: name, Description: description}
		if err := in.tx.InsertControlFamily(row); err != nil {
			return err
		}
		in.log.Info("control family", "code", code, "name", name)
	}
	return nil
}
