package dto

// AskRequest asks a question about datasets stored on the server.
type AskRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	// Datasets are file paths, passed to the snippet as df_1, df_2, ... in order.
	Datasets []string `json:"datasets" binding:"dive,required"`
	// Kind skips classification when set (TEXT, DATAFRAME, GEODATAFRAME, PLOT, MAP).
	Kind    string `json:"kind,omitempty" binding:"omitempty,oneof=TEXT DATAFRAME GEODATAFRAME PLOT MAP"`
	NoCache bool   `json:"no_cache,omitempty"`
}

// AskResponse carries a result whose value is encoded according to its kind:
// a string for TEXT, a column table for DATAFRAME, a GeoJSON FeatureCollection
// for GEODATAFRAME and the figure or map specification for PLOT and MAP.
type AskResponse struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
	Cached    bool   `json:"cached"`
	CacheKey  string `json:"cache_key,omitempty"`
	Code      string `json:"code"`
	Value     any    `json:"value"`
}

// ClearCacheResponse confirms a cache deletion.
type ClearCacheResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}
