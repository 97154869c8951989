package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/progress"
)

type ProgressHandler struct {
	aggregator *progress.Aggregator
	log        *logger.Logger
}

func NewProgressHandler(agg *progress.Aggregator, baseLog *logger.Logger) *ProgressHandler {
	return &ProgressHandler{aggregator: agg, log: baseLog.With("handler", "Progress")}
}

type levelStatResponse struct {
	Level    string `json:"level"`
	Total    int64  `json:"total"`
	Seen     int64  `json:"seen"`
	Mastered int64  `json:"mastered"`
	DueToday int64  `json:"due_today"`
}

type forecastDayResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type progressResponse struct {
	StreakDays  int                   `json:"streak_days"`
	AccuracyPct float64               `json:"accuracy_pct"`
	LevelStats  []levelStatResponse   `json:"level_stats"`
	Forecast    []forecastDayResponse `json:"forecast"`
}

func (h *ProgressHandler) Get(c *gin.Context) {
	snapshot, err := h.aggregator.Snapshot(c.Request.Context())
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	resp := progressResponse{
		StreakDays:  snapshot.StreakDays,
		AccuracyPct: snapshot.AccuracyPct,
	}
	for _, s := range snapshot.LevelStats {
		resp.LevelStats = append(resp.LevelStats, levelStatResponse{
			Level:    string(s.Level),
			Total:    s.Total,
			Seen:     s.Seen,
			Mastered: s.Mastered,
			DueToday: s.DueToday,
		})
	}
	for _, f := range snapshot.ForecastDays {
		resp.Forecast = append(resp.Forecast, forecastDayResponse{
			Date:  f.Date.String(),
			Count: f.Count,
		})
	}
	RespondOK(c, resp)
}
