package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yukimura/marginalia/internal/syncer"
	"github.com/yukimura/marginalia/internal/template"
	"github.com/yukimura/marginalia/internal/ui"
	"github.com/yukimura/marginalia/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync automatically when Apple Books writes new annotations",
	Long: `Watch the Apple Books annotation database and re-run the sync
whenever it changes. An initial sync runs at startup; afterwards each
burst of highlighting triggers one sync once the database has been
quiet for the debounce interval.

With --log-file, watch activity goes to a rotating log file instead of
stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
			cfg.LogFile = logFile
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")

		client := newClient(cfg)
		if !client.Connected(cmd.Context()) {
			return fmt.Errorf("logseq API unreachable at %s", cfg.APIURL)
		}

		source := newSource(cfg)
		if _, err := source.AnnotationDB(); err != nil {
			return err
		}

		logger := log.New(watch.NewLogWriter(cfg.LogFile), "[watch] ", log.LstdFlags)

		s := syncer.New(source, client, cfg.BooksFile,
			template.Load(cfg.TemplateFile), logger)

		wcfg := watch.DefaultConfig()
		wcfg.Logger = logger
		if debounce > 0 {
			wcfg.Debounce = debounce
		}

		w, err := watch.New(source.AnnotationDir, s, wcfg)
		if err != nil {
			return err
		}

		fmt.Printf("%s Watching %s\n", ui.RenderAccent("▸"), source.AnnotationDir)
		fmt.Println(ui.RenderDim("Press Ctrl+C to stop"))

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return w.Start(ctx)
	},
}

func init() {
	watchCmd.Flags().String("log-file", "", "rotating log file for watch activity")
	watchCmd.Flags().Duration("debounce", 5*time.Second, "quiet period before a sync fires")
	rootCmd.AddCommand(watchCmd)
}
