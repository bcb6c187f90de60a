package api

import (
	"encoding/json"
	"net/http"

	"sidescroller-session-engine/internal/session"
)

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine *session.Engine
}

// healthView is the GET / response shape (§6).
type healthView struct {
	Status        string         `json:"status"`
	TotalPlayers  int            `json:"totalPlayers"`
	TotalMonsters int            `json:"totalMonsters"`
	Maps          []mapStatsView `json:"maps"`
}

type mapStatsView struct {
	ID       string `json:"id"`
	Players  int    `json:"players"`
	Monsters int    `json:"monsters"`
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()

	maps := make([]mapStatsView, 0, len(stats.Maps))
	for _, m := range stats.Maps {
		maps = append(maps, mapStatsView{ID: m.ID, Players: m.Players, Monsters: m.Monsters})
	}

	writeJSON(w, healthView{
		Status:        "ok",
		TotalPlayers:  stats.TotalPlayers,
		TotalMonsters: stats.TotalMonsters,
		Maps:          maps,
	})

	UpdatePlayerCount(stats.TotalPlayers)
	UpdateMonsterCount(stats.TotalMonsters)
	UpdateRoomCount(len(stats.Maps))
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
