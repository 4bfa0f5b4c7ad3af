package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/geoinsight/backend/internal/domain"
	"github.com/geoinsight/backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PlayerHandler struct {
	playerService *service.PlayerService
	logger        *zap.Logger
}

func NewPlayerHandler(playerService *service.PlayerService, logger *zap.Logger) *PlayerHandler {
	return &PlayerHandler{playerService: playerService, logger: logger}
}

type PlayersResponse struct {
	Players []*domain.Player `json:"players"`
	Count   int              `json:"count"`
}

type SearchRequest struct {
	Username string `json:"username"`
}

type SearchResponse struct {
	Players []service.SearchMatch `json:"players"`
	Count   int                   `json:"count"`
}

type AddPlayerRequest struct {
	ExternalID string `json:"externalId"`
	Username   string `json:"username"`
}

type AddPlayerResponse struct {
	Player         *domain.Player `json:"player"`
	AlreadyTracked bool           `json:"alreadyTracked"`
}

type PlayerResponse struct {
	Player *domain.Player `json:"player"`
}

type DetailResponse struct {
	Player              *domain.Player           `json:"player"`
	History             []*domain.RatingSnapshot `json:"history"`
	Stats               service.PlayerStats      `json:"stats"`
	JustAddedToTracking bool                     `json:"justAddedToTracking"`
}

func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.playerService.ListPlayers(r.Context())
	if err != nil {
		h.logger.Error("player list failed", zap.Error(err))
		http.Error(w, "Failed to list players", http.StatusInternalServerError)
		return
	}

	writeJSON(w, PlayersResponse{Players: players, Count: len(players)})
}

func (h *PlayerHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "Username is required", http.StatusBadRequest)
		return
	}

	matches, err := h.playerService.SearchPlayers(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			http.Error(w, "Player not found on GeoGuessr", http.StatusNotFound)
			return
		}
		h.logger.Error("player search failed", zap.String("username", req.Username), zap.Error(err))
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, SearchResponse{Players: matches, Count: len(matches)})
}

func (h *PlayerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExternalID == "" || req.Username == "" {
		http.Error(w, "GeoGuessr ID and username are required", http.StatusBadRequest)
		return
	}

	player, alreadyTracked, err := h.playerService.AddPlayer(r.Context(), req.ExternalID, req.Username)
	if err != nil {
		h.logger.Error("player add failed", zap.String("externalId", req.ExternalID), zap.Error(err))
		http.Error(w, "Failed to add player", http.StatusInternalServerError)
		return
	}

	writeJSON(w, AddPlayerResponse{Player: player, AlreadyTracked: alreadyTracked})
}

func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return
	}

	player, err := h.playerService.GetPlayer(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}
		h.logger.Error("player get failed", zap.String("id", id.String()), zap.Error(err))
		http.Error(w, "Failed to get player", http.StatusInternalServerError)
		return
	}

	writeJSON(w, PlayerResponse{Player: player})
}

func (h *PlayerHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return
	}

	detail, err := h.playerService.GetOrSyncPlayerDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}
		h.logger.Error("player detail failed", zap.String("id", id.String()), zap.Error(err))
		http.Error(w, "Failed to get player detail", http.StatusInternalServerError)
		return
	}

	writeJSON(w, DetailResponse{
		Player:              detail.Player,
		History:             detail.History,
		Stats:               detail.Stats,
		JustAddedToTracking: detail.JustAddedToTracking,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
