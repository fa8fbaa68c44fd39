package model

// ReferenceLine is a horizontal guide drawn by the chart (e.g. RSI 30/70).
type ReferenceLine struct {
	Value           float64 `json:"value"`
	Label           string  `json:"label"`
	Color           string  `json:"color"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty"`
}

// ExtraLine describes a secondary line of a multi-line dataset.
type ExtraLine struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
	ChartType   string  `json:"chartType,omitempty"`
}

// Metadata tells the frontend how to render a dataset.
type Metadata struct {
	Label           string            `json:"label"`
	YAxisID         string            `json:"yAxisId"`
	YAxisLabel      string            `json:"yAxisLabel"`
	Unit            string            `json:"unit"`
	ChartType       string            `json:"chartType"`
	Color           string            `json:"color"`
	StrokeWidth     float64           `json:"strokeWidth"`
	Description     string            `json:"description"`
	Oscillator      bool              `json:"oscillator,omitempty"`
	Overlay         bool              `json:"overlay,omitempty"`
	RenderType      string            `json:"renderType,omitempty"`
	DotRadius       float64           `json:"dotRadius,omitempty"`
	DotColors       map[string]string `json:"dotColors,omitempty"`
	DataStructure   string            `json:"data_structure,omitempty"`
	Components      []string          `json:"components,omitempty"`
	YDomain         []float64         `json:"yDomain,omitempty"`
	ReferenceLines  []ReferenceLine   `json:"referenceLines,omitempty"`
	AdditionalLines []ExtraLine       `json:"additionalLines,omitempty"`
	Indexed         bool              `json:"indexed,omitempty"`
	Baseline        float64           `json:"baseline,omitempty"`
}

// Payload is the response body for one dataset request.
type Payload struct {
	Metadata Metadata `json:"metadata"`
	Data     Data     `json:"data"`
}
