package internal

// ControlRow is one normalized control. The statement is the flattened,
// indented narrative rebuilt from the control's statement part tree.
type ControlRow struct {
	ID        string
	CatalogID *string
	Class     *string
	Title     *string
	Label     *string
	Statement *string
}

type ParameterRow struct {
	ID        string
	ControlID *string
	Label     string
	Guideline *string
}

type PartRow struct {
	ID        string
	ControlID string
	Name      *string
	Prose     *string
	Order     *string
}

type PropRow struct {
	ID        string
	ControlID string
	Name      *string
	Value     *string
	Ns        *string
}

type LinkRow struct {
	ID        string
	ControlID string
	Href      *string
	Rel       *string
	MediaType *string
}

type ResourceRow struct {
	UUID     string
	Title    *string
	Location *string
	Citation *string
}

type ControlFamilyRow struct {
	Code        string
	Name        string
	Description *string
}

// BaselineRow is one imported profile document. PartyDetails is the JSON
// serialization of the profile's party contacts, "[]" when there are none.
type BaselineRow struct {
	Name         string
	Title        *string
	LastModified *string
	Version      *string
	PartyDetails string
}

type PartyInfo struct {
	UUID    *string `json:"uuid"`
	Type    *string `json:"type"`
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}
