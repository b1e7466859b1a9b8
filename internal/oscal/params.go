package oscal

import (
	"strings"

	"github.com/beevik/etree"

	"ctldb/internal"
)

// controlParamOwners maps every parameter id to the id of the control that
// declares it. Parameters are scanned globally before any label resolution
// because narrative text may reference parameters declared anywhere in the
// document. A parameter nested in a sub-control maps to the innermost control.
func controlParamOwners(root *etree.Element) map[string]string {
	owners := map[string]string{}
	for _, control := range descendants(root, "control") {
		controlID := control.SelectAttrValue("id", "")
		for _, param := range descendants(control, "param") {
			if paramID := param.SelectAttrValue("id", ""); paramID != "" {
				owners[paramID] = controlID
			}
		}
	}
	return owners
}

// resolveParams resolves every parameter's display label, persists one
// parameter row each, and returns the id-to-label map used when rebuilding
// narrative text.
func (in *Ingestor) resolveParams(root *etree.Element, owners map[string]string) (map[string]string, error) {
	labels := map[string]string{}
	for _, param := range descendants(root, "param") {
		paramID := param.SelectAttrValue("id", "")
		if paramID == "" {
			in.log.Warn("parameter without id, skipping")
			continue
		}

		label := resolveParamLabel(param)
		if label == "" {
			label = "<" + paramID + ">"
		}
		labels[paramID] = label

		var owner *string
		if controlID, ok := owners[paramID]; ok {
			owner = &controlID
		} else {
			in.log.Warn("parameter has no owning control", "param", paramID)
		}

		row := internal.ParameterRow{
			ID:        paramID,
			ControlID: owner,
			Label:     label,
			Guideline: paramGuideline(param),
		}
		if err := in.tx.InsertParameter(row); err != nil {
			return nil, err
		}
		in.log.Debug("parameter resolved", "param", paramID, "control", owner, "label", label)
	}
	return labels, nil
}

// resolveParamLabel walks the fallback chain: label element, select choices
// joined with " | ", a prop named "label", then the label attribute. Returns
// "" when nothing in the chain yields text.
func resolveParamLabel(param *etree.Element) string {
	if labelElem := param.SelectElement("label"); labelElem != nil && labelElem.Text() != "" {
		return labelElem.Text()
	}

	if selectElem := param.SelectElement("select"); selectElem != nil {
		var choices []string
		for _, choice := range selectElem.SelectElements("choice") {
			if choice.Text() != "" {
				choices = append(choices, strings.TrimSpace(choice.Text()))
			}
		}
		if len(choices) > 0 {
			return strings.Join(choices, " | ")
		}
	}

	for _, prop := range param.SelectElements("prop") {
		if prop.SelectAttrValue("name", "") == "label" {
			if v := prop.SelectAttrValue("value", ""); v != "" {
				return v
			}
			break
		}
	}

	return param.SelectAttrValue("label", "")
}

// paramGuideline joins the text of the guideline's paragraphs with spaces.
// nil when the parameter has no guideline element or it holds no paragraph
// text, so storage can tell "no guideline" from an empty one.
func paramGuideline(param *etree.Element) *string {
	guideline := param.SelectElement("guideline")
	if guideline == nil {
		return nil
	}
	var paragraphs []string
	for _, p := range guideline.SelectElements("p") {
		if p.Text() != "" {
			paragraphs = append(paragraphs, strings.TrimSpace(p.Text()))
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}
	joined := strings.Join(paragraphs, " ")
	return &joined
}
