package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	movesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tictactoe_moves_total",
			Help: "Moves recorded, by mark.",
		},
		[]string{"mark"},
	)

	gamesFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tictactoe_games_finished_total",
			Help: "Games that reached a terminal status, by status.",
		},
		[]string{"status"},
	)

	botSearchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tictactoe_bot_search_seconds",
			Help:    "Time spent by the bot choosing a move.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(movesTotal, gamesFinishedTotal, botSearchSeconds)
}
