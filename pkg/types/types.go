package types

import "fmt"

// ResultKind is the category of value a generated snippet must return.
type ResultKind int

const (
	// KindText is a textual answer.
	KindText ResultKind = iota
	// KindDataFrame is a tabular result.
	KindDataFrame
	// KindGeoDataFrame is a tabular result with a geometry column.
	KindGeoDataFrame
	// KindPlot is a chart figure.
	KindPlot
	// KindMap is an interactive web map.
	KindMap
)

// kindInfo holds everything that varies with the result kind.
type kindInfo struct {
	label  string
	phrase string
	goType string
}

var kindTable = map[ResultKind]kindInfo{
	KindText:         {label: "TEXT", phrase: "a textual answer", goType: "string"},
	KindDataFrame:    {label: "DATAFRAME", phrase: "a dataframe", goType: "*frame.DataFrame"},
	KindGeoDataFrame: {label: "GEODATAFRAME", phrase: "a geodataframe", goType: "*geo.GeoDataFrame"},
	KindPlot:         {label: "PLOT", phrase: "a chart figure", goType: "*chart.Figure"},
	KindMap:          {label: "MAP", phrase: "an interactive web map", goType: "*webmap.Map"},
}

// AllKinds lists the result kinds in the order they are offered to the model.
func AllKinds() []ResultKind {
	return []ResultKind{KindText, KindDataFrame, KindGeoDataFrame, KindPlot, KindMap}
}

// Labels returns the label of every kind, in AllKinds order.
func Labels() []string {
	kinds := AllKinds()
	labels := make([]string, len(kinds))
	for i, k := range kinds {
		labels[i] = k.Label()
	}
	return labels
}

// ParseResultKind maps a label such as "TEXT" back to its kind.
func ParseResultKind(label string) (ResultKind, error) {
	for kind, info := range kindTable {
		if info.label == label {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown result kind %q", label)
}

// Label is the token the model answers with during classification.
func (k ResultKind) Label() string { return k.info().label }

// Phrase describes the kind in generation prompts.
func (k ResultKind) Phrase() string { return k.info().phrase }

// GoType is the return type written into the generated signature.
func (k ResultKind) GoType() string { return k.info().goType }

func (k ResultKind) String() string { return k.Label() }

// MarshalText implements encoding.TextMarshaler.
func (k ResultKind) MarshalText() ([]byte, error) {
	if _, ok := kindTable[k]; !ok {
		return nil, fmt.Errorf("invalid result kind %d", int(k))
	}
	return []byte(k.Label()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ResultKind) UnmarshalText(text []byte) error {
	parsed, err := ParseResultKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k ResultKind) info() kindInfo {
	info, ok := kindTable[k]
	if !ok {
		panic(fmt.Sprintf("invalid result kind %d", int(k)))
	}
	return info
}
