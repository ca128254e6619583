package entity

// Stats is the public activity summary.
type Stats struct {
	GamesToday     int64 `json:"games_today"`
	PlayersOnline  int64 `json:"players_online"`
	PlayersInQueue int   `json:"players_in_queue"`
	ActiveGames    int   `json:"active_games"`
}
