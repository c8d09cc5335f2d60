package http

import "net/http"

// NewMux assembles every route the service exposes.
func NewMux(ws *WSHandler, games *GamesHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /ws/director/{code}", ws.ServeDirector)
	mux.HandleFunc("GET /ws/display/{code}", ws.ServeDisplay)
	mux.HandleFunc("GET /ws/player/{code}/{playerID}", ws.ServePlayer)

	mux.HandleFunc("POST /games", games.CreateGame)
	mux.HandleFunc("GET /games/code/{code}", games.GetGameByCode)
	mux.HandleFunc("GET /games/{id}", games.GetGame)
	mux.HandleFunc("POST /games/{code}/join", games.JoinGame)
	mux.HandleFunc("GET /games/{code}/players", games.Players)
	mux.HandleFunc("GET /games/{code}/leaderboard", games.Leaderboard)
	mux.HandleFunc("PATCH /games/{id}/start", games.StartGame)
	mux.HandleFunc("PATCH /games/{id}/pause", games.PauseGame)
	mux.HandleFunc("PATCH /games/{id}/resume", games.ResumeGame)
	mux.HandleFunc("PATCH /games/{id}/finish", games.FinishGame)
	mux.HandleFunc("PATCH /games/{id}/next-question", games.NextQuestion)
	mux.HandleFunc("PATCH /games/{id}/previous-question", games.PreviousQuestion)
	mux.HandleFunc("PATCH /games/{id}/set-question/{index}", games.SetQuestion)
	mux.HandleFunc("PATCH /games/{id}/content", games.LoadContent)
	mux.HandleFunc("PATCH /games/{code}/players/{playerID}/score", games.AdjustScore)

	mux.HandleFunc("POST /answers", games.SubmitAnswer)

	return mux
}
