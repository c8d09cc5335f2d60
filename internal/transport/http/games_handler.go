// Package http wires the realtime and grading cores to their outer surfaces:
// role-scoped websocket endpoints and a small JSON API for session setup and
// synchronous answer grading.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pubgame-service/internal/domain"
	"pubgame-service/internal/game"
)

// GamesHandler serves session setup, joining, and the grading boundary.
type GamesHandler struct {
	store  game.SessionStore
	packs  game.PackRepository
	grader *game.Grader
	locks  *game.KeyedMutex
	now    func() time.Time
}

func NewGamesHandler(store game.SessionStore, packs game.PackRepository, grader *game.Grader, locks *game.KeyedMutex) *GamesHandler {
	return &GamesHandler{store: store, packs: packs, grader: grader, locks: locks, now: time.Now}
}

type sessionResponse struct {
	ID                   string        `json:"id"`
	Code                 string        `json:"code"`
	Name                 string        `json:"name"`
	Host                 string        `json:"host"`
	Venue                string        `json:"venue"`
	Format               domain.Format `json:"format"`
	Status               domain.Status `json:"status"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	CurrentRound         int           `json:"current_round"`
	PlayersCount         int           `json:"players_count"`
	CreatedAt            time.Time     `json:"created_at"`
}

func sessionView(s domain.Session) sessionResponse {
	return sessionResponse{
		ID:                   s.ID,
		Code:                 s.Code,
		Name:                 s.Name,
		Host:                 s.Host,
		Venue:                s.Venue,
		Format:               s.Format,
		Status:               s.Status,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		CurrentRound:         s.CurrentRound,
		PlayersCount:         len(s.Players),
		CreatedAt:            s.CreatedAt,
	}
}

// CreateGame handles POST /games.
func (h *GamesHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string        `json:"name"`
		Host   string        `json:"host"`
		Venue  string        `json:"venue"`
		Format domain.Format `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Format.Known() {
		httpError(w, http.StatusBadRequest, domain.ErrUnknownFormat.Error())
		return
	}
	session := domain.NewSession(req.Name, req.Host, req.Venue, req.Format, h.now())
	if err := h.store.Save(r.Context(), session); err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(session))
}

// GetGame handles GET /games/{id}.
func (h *GamesHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetGameByCode handles GET /games/code/{code}, the lookup players use when
// joining.
func (h *GamesHandler) GetGameByCode(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.GetByCode(r.Context(), strings.ToUpper(r.PathValue("code")))
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// JoinGame handles POST /games/{code}/join. Display names are unique per
// session, case-insensitively, and finished sessions reject joins.
func (h *GamesHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	var req struct {
		Name  string `json:"name"`
		IsBot bool   `json:"is_bot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	unlock := h.locks.Lock(code)
	defer unlock()

	session, err := h.store.GetByCode(r.Context(), code)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if session.Status == domain.StatusFinished {
		httpError(w, http.StatusBadRequest, domain.ErrSessionFinished.Error())
		return
	}
	if session.HasPlayerName(req.Name) {
		httpError(w, http.StatusBadRequest, domain.ErrNameTaken.Error())
		return
	}

	player := domain.NewPlayer(req.Name, h.now())
	player.IsBot = req.IsBot
	session.Players = append(session.Players, player)
	if err := h.store.Save(r.Context(), session); err != nil {
		h.storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        player.ID,
		"name":      player.Name,
		"game_code": code,
		"score":     player.Score,
	})
}

// StartGame handles PATCH /games/{id}/start.
func (h *GamesHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *domain.Session) error {
		return game.Start(s, h.now())
	}, map[string]any{"message": "Game started", "status": domain.StatusActive})
}

// PauseGame handles PATCH /games/{id}/pause.
func (h *GamesHandler) PauseGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, game.Pause,
		map[string]any{"message": "Game paused", "status": domain.StatusPaused})
}

// ResumeGame handles PATCH /games/{id}/resume.
func (h *GamesHandler) ResumeGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, game.Resume,
		map[string]any{"message": "Game resumed", "status": domain.StatusActive})
}

// FinishGame handles PATCH /games/{id}/finish.
func (h *GamesHandler) FinishGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *domain.Session) error {
		game.Finish(s, h.now())
		return nil
	}, map[string]any{"message": "Game finished", "status": domain.StatusFinished})
}

// NextQuestion handles PATCH /games/{id}/next-question.
func (h *GamesHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	h.changeQuestion(w, r, "Next question", func(s *domain.Session) int {
		return game.Advance(s, 1)
	})
}

// PreviousQuestion handles PATCH /games/{id}/previous-question.
func (h *GamesHandler) PreviousQuestion(w http.ResponseWriter, r *http.Request) {
	h.changeQuestion(w, r, "Previous question", func(s *domain.Session) int {
		return game.Advance(s, -1)
	})
}

// SetQuestion handles PATCH /games/{id}/set-question/{index}.
func (h *GamesHandler) SetQuestion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		httpError(w, http.StatusBadRequest, "invalid question index")
		return
	}
	h.changeQuestion(w, r, "Question index set", func(s *domain.Session) int {
		game.Goto(s, index)
		return index
	})
}

// transition runs one locked state-machine operation against the session
// named by {id} and answers with the given payload on success.
func (h *GamesHandler) transition(w http.ResponseWriter, r *http.Request, op func(*domain.Session) error, resp map[string]any) {
	id := r.PathValue("id")
	session, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}

	unlock := h.locks.Lock(session.Code)
	defer unlock()
	session, err = h.store.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if err := op(&session); err != nil {
		h.storeError(w, err)
		return
	}
	if err := h.store.Save(r.Context(), session); err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GamesHandler) changeQuestion(w http.ResponseWriter, r *http.Request, message string, op func(*domain.Session) int) {
	id := r.PathValue("id")
	session, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}

	unlock := h.locks.Lock(session.Code)
	defer unlock()
	session, err = h.store.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	index := op(&session)
	if err := h.store.Save(r.Context(), session); err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message, "current_question_index": index})
}

// Players handles GET /games/{code}/players.
func (h *GamesHandler) Players(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.GetByCode(r.Context(), strings.ToUpper(r.PathValue("code")))
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Players)
}

// Leaderboard handles GET /games/{code}/leaderboard.
func (h *GamesHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.GetByCode(r.Context(), strings.ToUpper(r.PathValue("code")))
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game.Leaderboard(session))
}

// LoadContent handles PATCH /games/{id}/content. The body names a stored
// pack or carries an inline content tree; either way the tree must decode
// under the session's format tag before it is installed.
func (h *GamesHandler) LoadContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		PackID  string          `json:"pack_id"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}

	content := req.Content
	if req.PackID != "" {
		pack, err := h.packs.GetPack(r.Context(), req.PackID)
		if err != nil {
			h.storeError(w, err)
			return
		}
		if pack.Format != session.Format {
			httpError(w, http.StatusConflict, domain.ErrFormatMismatch.Error())
			return
		}
		content = pack.Content
	}
	if len(content) == 0 {
		httpError(w, http.StatusBadRequest, "missing pack_id or content")
		return
	}
	if _, err := domain.DecodeContent(session.Format, content); err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}

	unlock := h.locks.Lock(session.Code)
	defer unlock()
	session, err = h.store.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	game.LoadContent(&session, content)
	if err := h.store.Save(r.Context(), session); err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "game content updated"})
}

// SubmitAnswer handles POST /answers, the synchronous grading boundary.
func (h *GamesHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var sub domain.AnswerSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.grader.SubmitAnswer(r.Context(), sub)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AdjustScore handles PATCH /games/{code}/players/{playerID}/score, the
// director's manual override.
func (h *GamesHandler) AdjustScore(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	var req struct {
		Points  int   `json:"points"`
		Correct *bool `json:"correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	correct := true
	if req.Correct != nil {
		correct = *req.Correct
	}
	newScore, err := h.grader.AdjustScore(r.Context(), code, r.PathValue("playerID"), req.Points, correct)
	if err != nil {
		h.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "score updated", "new_score": newScore})
}

func (h *GamesHandler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrPackNotFound):
		httpError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrContentNotLoaded),
		errors.Is(err, domain.ErrFormatMismatch),
		errors.Is(err, domain.ErrUnknownFormat),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSessionFinished):
		httpError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("games handler: %v", err)
		httpError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
