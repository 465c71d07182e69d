package models

// Option is a value offered by a multi-select filter control.
type Option struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type OptionsResponse struct {
	Options []Option `json:"options"`
}
