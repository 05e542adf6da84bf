package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"reply-bot/dedup"
	"reply-bot/dto"
	"reply-bot/ledger"
	"reply-bot/replyscore"
)

const defaultLimit = 20

func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return min(n, 100)
}

// ListRunsHandler lists recent runs kept in memory, newest first.
func ListRunsHandler(history *ledger.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		runs := history.List(limitParam(c))
		items := make([]dto.RunDTO, 0, len(runs))
		for _, r := range runs {
			items = append(items, dto.NewRunDTO(r))
		}
		c.JSON(http.StatusOK, dto.NewList(items))
	}
}

// GetRunHandler returns one run summary including logs and outcomes.
func GetRunHandler(history *ledger.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, ok := history.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not found"})
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

// RecentMetricsHandler returns persisted run metrics, newest first.
func RecentMetricsHandler(reader ledger.MetricsReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := reader.Recent(c.Request.Context(), limitParam(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, dto.NewList(items))
	}
}

// DedupStatsHandler reports the size of the dedup state.
func DedupStatsHandler(store dedup.Store, cooldownDays int, now func() time.Time) gin.HandlerFunc {
	cooldown := dedup.CooldownFromDays(cooldownDays)
	return func(c *gin.Context) {
		res, err := store.Load(c.Request.Context())
		out := dto.DedupStatsDTO{CooldownDays: cooldownDays}
		switch {
		case errors.Is(err, dedup.ErrCorruptState):
			out.Warning = err.Error()
			c.JSON(http.StatusOK, out)
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: err.Error()})
			return
		}

		t := now()
		out.Found = res.Found
		out.Authors = len(res.Snapshot.AuthorLastContact)
		out.ContactedPosts = len(res.Snapshot.ContactedPostIDs)
		for _, last := range res.Snapshot.AuthorLastContact {
			if t.Sub(last) < cooldown {
				out.AuthorsInCooldown++
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

// ScoreReplyHandler runs a reply through the quality gate.
func ScoreReplyHandler(gate replyscore.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.ScoreReplyRequestDTO
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "text is required"})
			return
		}
		reply, score, ok := gate.Accept(in.Text)
		c.JSON(http.StatusOK, dto.ScoreReplyResponseDTO{
			Reply:    reply,
			Score:    score,
			MinScore: gate.MinScore,
			Accepted: ok,
		})
	}
}
