package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/audio"
	"github.com/sadopc/focusflow/internal/config"
	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	apiURL     string
	dbPath     string
	offline    bool

	cfg     config.Config
	logFile io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "focusflow",
		Short:         "Pomodoro focus timer for the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logFile != nil {
				opts.logFile.Close()
			}
		},
		RunE: func(*cobra.Command, []string) error {
			return runTUI(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/focusflow/config.yaml)")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "backend base URL")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "local database path")
	root.PersistentFlags().BoolVar(&opts.offline, "offline", false, "ignore api_url and use the local database only")

	root.AddCommand(newTasksCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

// load resolves the configuration, flags last, and points the standard
// logger at the log file. Without one, logs are dropped so they never draw
// over the TUI.
func (o *rootOptions) load(cmd *cobra.Command) error {
	path := o.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = o.apiURL
	}
	if flags.Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if o.offline {
		cfg.APIURL = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DBPath == "" {
		if cfg.DBPath, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}
	o.cfg = cfg

	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := tea.LogToFile(cfg.LogFile, "focusflow")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	o.logFile = f
	return nil
}

// services are the backends a command talks to. In offline mode both are
// the local store.
type services struct {
	store    *store.Store
	sessions pomodoro.SessionService
	tasks    pomodoro.TaskService
}

func (o *rootOptions) open() (*services, error) {
	s, err := store.New(o.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	svc := &services{store: s, sessions: s, tasks: s}
	if !o.cfg.Offline() {
		client := api.NewClient(o.cfg.APIURL, o.cfg.RequestTimeout)
		svc.sessions = client
		svc.tasks = client
	}
	return svc, nil
}

func (s *services) Close() error { return s.store.Close() }

func newSequencer(cfg config.Audio) *audio.Sequencer {
	var player, music audio.Player = audio.Silent{}, nil
	var tracks []string
	if cfg.Enabled {
		p, err := audio.FindPlayer(cfg.Player)
		if err != nil {
			log.Printf("audio: %v, using the terminal bell", err)
			player = audio.Bell{W: os.Stderr}
		} else {
			player = p
		}
		// Break music needs a player that can follow the fade.
		if m, err := audio.FindMusicPlayer(cfg.Player); err != nil {
			log.Printf("audio: no music player with volume control, break music off: %v", err)
		} else {
			music = m
			tracks = audio.FindTracks(cfg.BGMDir)
		}
	}
	seq := audio.New(audio.Options{
		Player:     player,
		Music:      music,
		Cues:       audio.FindCues(cfg.Dir),
		Tracks:     tracks,
		Volume:     cfg.Volume,
		BGMVolume:  cfg.BGMVolume,
		FadeWindow: cfg.FadeWindow,
		StopFade:   cfg.StopFade,
	})
	if _, ok := player.(*audio.ExecPlayer); ok {
		seq.Preload()
	}
	return seq
}

func runTUI(o *rootOptions) error {
	svc, err := o.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	seq := newSequencer(o.cfg.Audio)
	defer seq.Close()

	prefs := session.LoadPreferences(svc.store)
	queue := &session.Queue{}
	ctrl := session.New(session.Options{
		Sessions:     svc.sessions,
		Store:        svc.store,
		History:      svc.store,
		Audio:        seq,
		Runner:       queue,
		FocusMinutes: prefs.FocusMinutes,
		BreakMinutes: prefs.BreakMinutes,
		BreakBGM:     prefs.BreakBGM,
	})

	app := tui.NewApp(tui.Deps{
		Controller:   ctrl,
		Queue:        queue,
		Tasks:        svc.tasks,
		Store:        svc.store,
		Audio:        seq,
		TickInterval: o.cfg.TickInterval,
		Offline:      o.cfg.Offline(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
