package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/user/campo-8bit/config"
	"github.com/user/campo-8bit/internal/career"
	"github.com/user/campo-8bit/internal/llm"
	"github.com/user/campo-8bit/internal/session"
	"github.com/user/campo-8bit/internal/teams"
	"github.com/user/campo-8bit/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Set up logger
	logger := setupLogger()
	defer logger.Sync()

	// Load environment (API keys live in .env, not in the config file)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	apiKey := os.Getenv(cfg.Completion.APIKeyEnv)
	if apiKey == "" {
		logger.Warn("Completion API key not set, all narratives will use fallbacks",
			zap.String("env_var", cfg.Completion.APIKeyEnv))
	}

	// Open the team directory and seed it
	directory, err := teams.Open(cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatal("Failed to open team directory", zap.Error(err))
	}
	defer directory.Close()

	if err := directory.SeedFromFile(cfg.Database.SeedPath); err != nil {
		logger.Error("Failed to seed team directory", zap.Error(err))
	}

	// Session store and completion client
	store := session.NewStore(cfg.Game.SessionPath, cfg.Game.StartingFollowers, logger)
	completion := llm.NewClient(cfg.Completion, apiKey, logger)

	// Career progression engine
	engine := career.NewEngine(completion, store, logger, career.EngineOptions{
		BaseXPReward: cfg.Game.BaseXPReward,
		SeasonMode:   cfg.Game.SeasonMode,
		Timeout:      time.Duration(cfg.Completion.TimeoutSeconds) * time.Second,
		MaxTokens:    cfg.Completion.MaxTokens,
	})

	// Set up HTTP server
	server := setupHTTPServer(cfg, engine, store, directory, logger)

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(logger)
}

func setupLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

func setupHTTPServer(cfg config.Config, engine *career.Engine, store *session.Store, directory *teams.Directory, logger *zap.Logger) *http.Server {
	// Create router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// The game runs in a browser; allow its origins
	router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Player creation with club assignment
	router.Post("/api/players", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string            `json:"name"`
			Age         int               `json:"age"`
			Nationality string            `json:"nationality"`
			Position    string            `json:"position"`
			Attributes  *types.Attributes `json:"attributes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.Nationality == "" || req.Position == "" {
			http.Error(w, "name, nationality and position are required", http.StatusBadRequest)
			return
		}
		if req.Age <= 0 {
			req.Age = 18
		}

		team, err := directory.RandomTeam(countryCode(req.Nationality))
		if err != nil {
			logger.Error("Failed to assign club", zap.Error(err))
			http.Error(w, "Failed to assign club", http.StatusInternalServerError)
			return
		}

		attrs := defaultAttributes(req.Position)
		if req.Attributes != nil {
			attrs = *req.Attributes
		}

		profile, err := store.CreatePlayer(types.PlayerProfile{
			Name:        req.Name,
			Age:         req.Age,
			Nationality: req.Nationality,
			Position:    req.Position,
			StartClub:   team.Name,
			Attributes:  attrs,
		})
		if err != nil {
			logger.Error("Failed to create player", zap.Error(err))
			http.Error(w, "Failed to create player", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, profile)
	})

	// Career start
	router.Post("/api/career/start", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string `json:"player_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		resp, err := engine.StartCareer(r.Context(), req.PlayerID)
		if err != nil {
			logger.Error("Failed to start career", zap.String("player_id", req.PlayerID), zap.Error(err))
			http.Error(w, "Failed to start career", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	})

	// Choice resolution (picked is "A", "B" or free text)
	router.Post("/api/career/choice", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID    string `json:"player_id"`
			Picked      string `json:"picked"`
			OptionLabel string `json:"option_label"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if req.Picked == "" {
			http.Error(w, "picked is required", http.StatusBadRequest)
			return
		}

		resp, err := engine.ResolveChoice(r.Context(), req.PlayerID, req.Picked, req.OptionLabel)
		if err != nil {
			logger.Error("Failed to resolve choice", zap.String("player_id", req.PlayerID), zap.Error(err))
			http.Error(w, "Failed to resolve choice", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	})

	// Week advance (season variant)
	router.Post("/api/career/week", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string `json:"player_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		responses, err := engine.AdvanceWeek(r.Context(), req.PlayerID)
		if err != nil {
			logger.Error("Failed to advance week", zap.String("player_id", req.PlayerID), zap.Error(err))
			http.Error(w, "Failed to advance week", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, responses)
	})

	// Player status
	router.Get("/api/players/{playerID}/status", func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")

		profile, err := store.Profile(playerID)
		if err != nil {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}
		stats, err := store.CareerStats(playerID)
		if err != nil {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}
		seasonStats, _ := store.SeasonStats(playerID)
		xpPool, _ := store.XPPool(playerID)
		focus, _ := store.AttributeFocus(playerID)
		week, _ := store.WeekCount(playerID)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"profile":         profile,
			"career_stats":    stats,
			"season_stats":    seasonStats,
			"xp_pool":         xpPool,
			"attribute_focus": focus,
			"week_count":      week,
		})
	})

	// Career reset
	router.Delete("/api/players/{playerID}/career", func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")

		if err := store.ResetCareer(playerID); err != nil {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	})

	// Create HTTP server
	return &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
}

// countryCodes maps common nationality spellings to the ISO codes the team
// directory is keyed by
var countryCodes = map[string]string{
	"brasil":        "BR",
	"brazil":        "BR",
	"argentina":     "AR",
	"portugal":      "PT",
	"espanha":       "ES",
	"spain":         "ES",
	"alemanha":      "DE",
	"germany":       "DE",
	"holanda":       "NL",
	"países baixos": "NL",
	"netherlands":   "NL",
}

// countryCode normalizes a free-form nationality to a directory country code.
// Two-letter input is treated as a code already; anything unknown passes
// through and lands on the directory's synthetic fallback.
func countryCode(nationality string) string {
	trimmed := strings.TrimSpace(nationality)
	if code, ok := countryCodes[strings.ToLower(trimmed)]; ok {
		return code
	}
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	return trimmed
}

// defaultAttributes gives a creation baseline of 5 everywhere with a small
// bump on the attributes the position lives from
func defaultAttributes(position string) types.Attributes {
	attrs := types.Attributes{
		Speed:    5,
		Physical: 5,
		Shooting: 5,
		Heading:  5,
		Charisma: 5,
		Passing:  5,
		Defense:  5,
	}

	pos := strings.ToLower(position)
	switch {
	case strings.Contains(pos, "atacante"), strings.Contains(pos, "centroavante"):
		attrs.Shooting = 7
		attrs.Speed = 6
	case strings.Contains(pos, "ponta"):
		attrs.Speed = 7
		attrs.Shooting = 6
	case strings.Contains(pos, "meia"), strings.Contains(pos, "meio-campo"):
		attrs.Passing = 7
		attrs.Charisma = 6
	case strings.Contains(pos, "goleiro"):
		attrs.Defense = 8
	case strings.Contains(pos, "zagueiro"), strings.Contains(pos, "lateral"), strings.Contains(pos, "volante"):
		attrs.Defense = 7
		attrs.Physical = 6
	}

	return attrs
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func waitForShutdown(logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform cleanup
	logger.Info("Shutting down")
}
