package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"chessguessr/internal/engine"
	"chessguessr/internal/handlers"
	"chessguessr/internal/logging"
	"chessguessr/internal/room"
	"chessguessr/internal/storage"
	"chessguessr/internal/wire"
)

type config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	EnginePath  string `env:"ENGINE_PATH"`
	SearchDepth int    `env:"SEARCH_DEPTH" envDefault:"20"`
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()
	logging.Debug = *debug

	if err := godotenv.Load(); err != nil {
		logging.Debugf("no .env file: %v", err)
	}
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}

	var store *storage.Store
	if cfg.DatabaseDSN != "" {
		db, err := storage.New(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		store = storage.NewStore(db)
	} else {
		log.Printf("DATABASE_DSN not set; round bank endpoints will report empty")
	}

	hub := room.NewHub()
	hub.OnFinish = func(r *room.Room, final []wire.LeaderboardEntry) {
		names := make([]string, len(final))
		scores := make([]int, len(final))
		for i, e := range final {
			names[i] = e.PlayerName
			scores[i] = e.Score
		}
		if err := store.SaveRoomResult(context.Background(), r.Code, string(r.Kind),
			len(r.Rounds), r.CreatedAt, names, scores); err != nil {
			log.Printf("persist room %s: %v", r.Code, err)
		}
	}

	if cfg.EnginePath != "" && store != nil {
		go seedEvaluations(store, cfg.EnginePath, cfg.SearchDepth)
	}

	h := handlers.NewHandler(hub, store)

	http.HandleFunc("/api/random-game", h.HandleRandomGame)
	http.HandleFunc("/api/random-eval", h.HandleRandomEval)
	http.HandleFunc("/api/calculate-score", h.HandleCalculateScore)
	http.HandleFunc("/api/calculate-eval-score", h.HandleCalculateEvalScore)
	http.HandleFunc("/api/create-room", h.HandleCreateRoom)
	http.HandleFunc("/api/create-eval-room", h.HandleCreateEvalRoom)
	http.HandleFunc("/api/join-room/", h.HandleJoinRoom)
	http.HandleFunc("/api/stats", h.HandleStats)
	http.HandleFunc("/ws", h.HandleWS)

	log.Printf("chessguessr %s (%s) listening on %s …", commit, buildDate, cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, nil))
}

// seedEvaluations works through bank positions that have no stored
// verdict yet. Mate scores are skipped: the guessing formula wants a
// pawn value, and a forced mate makes a poor guessing round anyway.
func seedEvaluations(store *storage.Store, enginePath string, depth int) {
	eng, err := engine.New(enginePath)
	if err != nil {
		log.Printf("engine unavailable, positions stay unevaluated: %v", err)
		return
	}
	defer eng.Close()

	ctx := context.Background()
	for {
		positions, err := store.UnevaluatedPositions(ctx, 50)
		if err != nil {
			log.Printf("seed evaluations: %v", err)
			return
		}
		if len(positions) == 0 {
			logging.Debugf("evaluation seeding done")
			return
		}
		stored := 0
		for _, pos := range positions {
			ch, err := eng.Analyze(ctx, pos.FEN, depth)
			if err != nil {
				logging.Debugf("analyze %s: %v", pos.FEN, err)
				continue
			}
			ev, ok := <-ch
			if !ok || ev.Mate != 0 {
				continue
			}
			pawns := engine.WhitePerspective(ev, pos.FEN).Pawns
			if err := store.SetPositionEvaluation(ctx, pos.ID, pawns, ev.BestMove); err != nil {
				log.Printf("store evaluation: %v", err)
				continue
			}
			stored++
		}
		if stored == 0 {
			// Everything left is mate-in-N or unanalyzable; a
			// retry would fetch the same batch.
			return
		}
		time.Sleep(time.Second)
	}
}
