// cmd/simulate/main.go plays a headless CPU-vs-CPU match and prints its log.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/jason-s-yu/bloodrecall/internal/bot"
	"github.com/jason-s-yu/bloodrecall/internal/config"
	"github.com/jason-s-yu/bloodrecall/internal/game"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	maxTurns := flag.Int("max-turns", 200, "stop after this many turns (0 for no limit)")
	relic1 := flag.String("relic1", "", "relic for the first seat (random if empty)")
	relic2 := flag.String("relic2", "", "relic for the second seat (random if empty)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if lvl, err := logrus.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}

	seats := []game.Seat{
		{ID: "cpu-1", Name: "Crimson", Relic: *relic1},
		{ID: "cpu-2", Name: "Azure", Relic: *relic2},
	}
	final, err := bot.Play(game.SeededEnv(*seed), seats, *maxTurns)

	for _, line := range final.Log {
		logger.Info(line)
	}
	entry := logger.WithFields(logrus.Fields{
		"seed":  *seed,
		"turns": final.TurnCount,
	})
	if err != nil {
		entry.WithError(err).Error("simulation stopped")
		os.Exit(1)
	}

	for _, p := range final.Players {
		entry = entry.WithField(p.ID, p.Jinki.Name)
	}
	entry.WithField("winner", final.WinnerID).Info("match over")
}
