package oscal

import "testing"

func TestResolveParamLabelElement(t *testing.T) {
	param := mustParse(t, `<param id="p1"><label>frequency</label></param>`)
	if got := resolveParamLabel(param); got != "frequency" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveParamLabelSelectChoices(t *testing.T) {
	param := mustParse(t, `
<param id="p1">
  <select how-many="one-or-more">
    <choice>annually</choice>
    <choice>quarterly</choice>
  </select>
</param>`)
	if got := resolveParamLabel(param); got != "annually | quarterly" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveParamLabelProp(t *testing.T) {
	param := mustParse(t, `<param id="p1"><prop name="label" value="time period"/></param>`)
	if got := resolveParamLabel(param); got != "time period" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveParamLabelAttribute(t *testing.T) {
	param := mustParse(t, `<param id="p1" label="attr label"/>`)
	if got := resolveParamLabel(param); got != "attr label" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveParamLabelNothing(t *testing.T) {
	param := mustParse(t, `<param id="p1"/>`)
	if got := resolveParamLabel(param); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveParamLabelPrecedence(t *testing.T) {
	// label element beats select, prop, and attribute
	param := mustParse(t, `
<param id="p1" label="attr">
  <label>element</label>
  <select><choice>choice</choice></select>
  <prop name="label" value="prop"/>
</param>`)
	if got := resolveParamLabel(param); got != "element" {
		t.Fatalf("got %q", got)
	}
}

func TestParamGuideline(t *testing.T) {
	param := mustParse(t, `
<param id="p1">
  <guideline>
    <p>First sentence.</p>
    <p>Second sentence.</p>
  </guideline>
</param>`)
	got := paramGuideline(param)
	if got == nil || *got != "First sentence. Second sentence." {
		t.Fatalf("got %v", got)
	}
}

func TestParamGuidelineAbsentIsNil(t *testing.T) {
	if got := paramGuideline(mustParse(t, `<param id="p1"/>`)); got != nil {
		t.Fatalf("got %v", got)
	}
	// guideline element with no paragraph text is also unset
	if got := paramGuideline(mustParse(t, `<param id="p1"><guideline></guideline></param>`)); got != nil {
		t.Fatalf("got %v", got)
	}
}

func TestControlParamOwners(t *testing.T) {
	root := mustParse(t, `
<catalog>
  <group id="ac">
    <control id="ac-1">
      <param id="ac-1_prm_1"/>
      <control id="ac-1.1">
        <param id="ac-1.1_prm_1"/>
      </control>
    </control>
  </group>
</catalog>`)
	owners := controlParamOwners(root)
	if owners["ac-1_prm_1"] != "ac-1" {
		t.Fatalf("owner: %q", owners["ac-1_prm_1"])
	}
	// a parameter inside a nested control belongs to the innermost control
	if owners["ac-1.1_prm_1"] != "ac-1.1" {
		t.Fatalf("nested owner: %q", owners["ac-1.1_prm_1"])
	}
}
