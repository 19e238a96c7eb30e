package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpapi "paren-maren/internal/api/http"
	"paren-maren/internal/api/ws"
	"paren-maren/internal/config"
	"paren-maren/internal/game"
	"paren-maren/internal/logger"
	"paren-maren/internal/room"
	"paren-maren/internal/store"

	// swagger packages
	_ "paren-maren/docs"
)

var (
	flagAddr   string
	flagConfig string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "paren-maren",
	Short: "Paren Maren multiplayer dice game server",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
}

// @title Paren Maren API
// @version 1.0
// @description Realtime multiplayer dice game server (Go + Gin)
// @contact.name Backend Team
// @BasePath /
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.HTTPAddr = flagAddr
	}
	log := logger.New(flagDebug)

	mem := store.NewMemoryStore()
	rm := room.NewManager(mem, cfg, game.NewRoller(), log)
	hub := ws.NewHub(rm, cfg, log)
	r := httpapi.SetupRouter(rm, hub, mem, cfg)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
	return r.Run(cfg.HTTPAddr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
