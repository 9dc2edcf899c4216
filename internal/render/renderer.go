package render

import (
	"git.lost.host/meutraa/tally/internal/replay"
	"git.lost.host/meutraa/tally/internal/score"
)

type Renderer interface {
	Init() error
	Deinit() error
	RenderInfo(info *replay.Info, size int64)
	// RenderAnalysis reports whether every frame passed.
	RenderAnalysis(info *replay.Info, results []replay.Result, all bool) bool
	RenderInputs(info *replay.Info, data *replay.Data)
	RenderHistory(runs []score.Run)
}
