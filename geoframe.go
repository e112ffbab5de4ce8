package geoai

import (
	"context"
	"errors"

	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
)

// ErrDetached is returned by GeoFrame.Chat on a frame not produced by a Client.
var ErrDetached = errors.New("geoframe is not attached to a client")

// GeoFrame is a geodataframe that remembers the client that produced it, so
// follow-up questions can be asked directly on the result.
type GeoFrame struct {
	*geo.GeoDataFrame
	client GeoAI
}

// NewGeoFrame attaches g to client.
func NewGeoFrame(g *geo.GeoDataFrame, client GeoAI) *GeoFrame {
	return &GeoFrame{GeoDataFrame: g, client: client}
}

// Chat asks a question about this frame. others are passed after it, as
// df_2, df_3 and so on.
func (f *GeoFrame) Chat(ctx context.Context, prompt string, others []frame.Dataset, opts ...AskOption) (*Result, error) {
	if f.client == nil {
		return nil, ErrDetached
	}
	datasets := append([]frame.Dataset{f.GeoDataFrame}, others...)
	return f.client.Ask(ctx, prompt, datasets, opts...)
}
