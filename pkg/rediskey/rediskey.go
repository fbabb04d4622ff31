package rediskey

import "fmt"

// Board keys (shared convention across processes)
const (
	BoardStandingsPrefix = "board:standings"
	BoardGoalPrefix      = "board:goal"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildBoardStandingsKey returns "board:standings:{boardID}"
func BuildBoardStandingsKey(boardID string) string {
	return NamespaceKey(BoardStandingsPrefix, boardID)
}

// BuildBoardGoalKey returns "board:goal:{boardID}"
func BuildBoardGoalKey(boardID string) string {
	return NamespaceKey(BoardGoalPrefix, boardID)
}
