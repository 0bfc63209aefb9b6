package ui

// StageMsg reports progress of one pipeline stage.
type StageMsg struct {
	Stage    int     // 1-based stage index
	Name     string  // "Analyzing", "Normalizing", ...
	Progress float64 // 0.0 to 1.0
}

// LevelMsg carries the most recent level measurements for the meters.
type LevelMsg struct {
	MicDB float64
	SysDB float64
}

// WarningMsg surfaces a non-fatal condition (e.g. clipping detected).
type WarningMsg struct {
	Message string
}

// DoneMsg signals that the pipeline finished, successfully or not.
type DoneMsg struct {
	Err error
}
