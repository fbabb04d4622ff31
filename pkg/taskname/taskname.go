package taskname

const (
	// Board tasks
	BoardRecompute    = "board:recompute"
	BoardRecomputeAll = "board:recompute:all"
)
