package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"git.lost.host/meutraa/encore/internal/config"
	"git.lost.host/meutraa/encore/internal/game"
	"git.lost.host/meutraa/encore/internal/log"
	"git.lost.host/meutraa/encore/internal/parser"
	"git.lost.host/meutraa/encore/internal/replay"
)

var errVerificationFailed = errors.New("replay verification failed")

var (
	app = kingpin.New("encore", "Frame independent rhythm game scoring and replay verification")

	logLevel    = app.Flag("log-level", "Log level").Envar("ENCORE_LOG_LEVEL").Default(config.LogLevel).Enum("debug", "info", "warn", "error")
	logFormat   = app.Flag("log-format", "Log format").Envar("ENCORE_LOG_FORMAT").Default(config.LogFormat).Enum("auto", "json", "text")
	database    = app.Flag("database", "Replay database").Short('d').Envar("ENCORE_DATABASE").Default(config.Database).String()
	presetsFile = app.Flag("presets", "YAML file of engine parameter presets").Envar("ENCORE_PRESETS").ExistingFile()

	verifyCmd     = app.Command("verify", "Re-simulate replays on a jittered frame clock and compare statistics")
	verifyFiles   = verifyCmd.Arg("replays", "Replay files").Required().ExistingFiles()
	verifyFPS     = verifyCmd.Flag("fps", "Simulated frames per second").Default("60").Float64()
	verifySeed    = verifyCmd.Flag("seed", "Frame jitter seed, 0 for random").Default("0").Int64()
	verifyFailed  = verifyCmd.Flag("failures-only", "Only print frames that were not reproduced").Bool()
	verifyTimeout = verifyCmd.Flag("timeout", "Give up after").Default(config.Timeout.String()).Duration()

	importCmd   = app.Command("import", "Store the frames of replays in the database")
	importFiles = importCmd.Arg("replays", "Replay files").Required().ExistingFiles()

	historyCmd    = app.Command("history", "List stored frames for the chart of a replay")
	historyChart  = historyCmd.Arg("replay", "Replay whose chart to look up").Required().ExistingFile()
	historyVerify = historyCmd.Flag("verify", "Verify every stored frame").Bool()

	presetsCmd = app.Command("presets", "List engine parameter presets")

	recordCmd        = app.Command("record", "Record a bot performance of a chart")
	recordChart      = recordCmd.Arg("chart", "Replay or .sm simfile whose chart to play").Required().ExistingFile()
	recordMode       = recordCmd.Flag("mode", "Game mode").Default(game.FiveFretGuitar.String()).Enum("five-fret-guitar", "four-lane-drums", "five-lane-drums")
	recordInstrument = recordCmd.Flag("instrument", "Instrument").Default(game.Guitar.String()).Enum("guitar", "bass", "drums")
	recordDifficulty = recordCmd.Flag("difficulty", "Difficulty").Default(game.Expert.String()).Enum("easy", "medium", "hard", "expert")
	recordPreset     = recordCmd.Flag("preset", "Engine parameter preset").Default(config.Preset).String()
	recordOutput     = recordCmd.Flag("output", "Write the replay here instead of stdout").Short('o').String()
)

func main() {
	app.Version("0.3.0")
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	config.LogLevel = *logLevel
	config.LogFormat = *logFormat
	config.Database = *database
	config.PresetsFile = *presetsFile

	if err := log.Init(config.LogLevel, config.LogFormat); nil != err {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Logger.Sync()

	if err := run(command); nil != err {
		log.Logger.Error("command failed", zap.String("command", command), zap.Error(err))
		log.Logger.Sync()
		os.Exit(1)
	}
}

func run(command string) error {
	switch command {
	case verifyCmd.FullCommand():
		config.FPS = *verifyFPS
		config.Seed = *verifySeed
		config.FailuresOnly = *verifyFailed
		config.Timeout = *verifyTimeout
		return verify(*verifyFiles)
	case importCmd.FullCommand():
		return importReplays(*importFiles)
	case historyCmd.FullCommand():
		return history(*historyChart, *historyVerify)
	case presetsCmd.FullCommand():
		return listPresets()
	case recordCmd.FullCommand():
		config.Preset = *recordPreset
		return record(*recordChart)
	}
	return fmt.Errorf("unknown command %s", command)
}

func loadReplays(paths []string) ([]*replay.Replay, error) {
	replays := make([]*replay.Replay, 0, len(paths))
	for _, p := range paths {
		r, err := replay.Load(p)
		if nil != err {
			return nil, err
		}
		if r.Name == "" {
			r.Name = p
		}
		replays = append(replays, r)
	}
	return replays, nil
}

func verify(paths []string) error {
	replays, err := loadReplays(paths)
	if nil != err {
		return err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Logger.Info("verifying replays", zap.Int("count", len(replays)), zap.Float64("fps", config.FPS), zap.Int64("seed", seed))

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	results, err := replay.VerifyAll(ctx, replays, replay.WithFPS(config.FPS), replay.WithSeed(seed))
	if nil != err {
		return err
	}
	return report(replays, results)
}

func report(replays []*replay.Replay, results [][]replay.AnalysisResult) error {
	failed := 0
	for i, res := range results {
		var shown []replay.AnalysisResult
		for _, r := range res {
			if !r.Passed {
				failed++
			}
			if !config.FailuresOnly || !r.Passed {
				shown = append(shown, r)
			}
		}
		if len(shown) == 0 {
			continue
		}
		fmt.Printf("%s\n\n", replays[i].Name)
		if err := replay.Render(os.Stdout, shown); nil != err {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d frames", errVerificationFailed, failed)
	}
	return nil
}

func importReplays(paths []string) error {
	replays, err := loadReplays(paths)
	if nil != err {
		return err
	}
	store, err := replay.OpenStore(config.Database)
	if nil != err {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer store.Close()
	for _, r := range replays {
		if err := store.Save(r); nil != err {
			return fmt.Errorf("%s: %w", r.Name, err)
		}
		log.Logger.Info("imported replay", zap.String("name", r.Name), zap.Int("frames", len(r.Frames)))
	}
	return nil
}

func history(path string, verifyFrames bool) error {
	r, err := replay.Load(path)
	if nil != err {
		return err
	}
	store, err := replay.OpenStore(config.Database)
	if nil != err {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer store.Close()

	histories, err := store.Load(r.Chart)
	if nil != err {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLAYER\tMODE\tSCORE\tRECORDED\tVERIFIED")
	for _, h := range histories {
		verified := "-"
		if verifyFrames {
			res, err := replay.Analyze(h.Replay(r.Chart))
			if nil != err {
				verified = err.Error()
			} else if res[0].Passed {
				verified = "yes"
			} else {
				verified = "no"
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%v\t%d\t%s\t%s\n",
			h.ID, h.Frame.Profile.Name, h.Frame.Profile.Mode, h.Score(), h.Created.Format("2006-01-02 15:04"), verified)
	}
	return w.Flush()
}

func listPresets() error {
	presets, err := config.LoadPresetsFile(config.PresetsFile)
	if nil != err {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFRONT\tBACK\tHOPO\tSTRUM\tINFINITE FRONT END")
	for _, name := range presets.Names() {
		p := presets[name]
		fmt.Fprintf(w, "%s\t%v\t%v\t%v\t%v\t%v\n",
			name, p.HitWindow.Front, p.HitWindow.Back, p.HopoLeniency, p.StrumLeniency, p.InfiniteFrontEnd)
	}
	return w.Flush()
}

func loadChart(path string) (*game.Chart, error) {
	if strings.EqualFold(filepath.Ext(path), ".sm") {
		return parser.ParseFile(path)
	}
	r, err := replay.Load(path)
	if nil != err {
		return nil, err
	}
	return r.Chart, nil
}

func record(path string) error {
	chart, err := loadChart(path)
	if nil != err {
		return err
	}
	presets, err := config.LoadPresetsFile(config.PresetsFile)
	if nil != err {
		return err
	}
	params, err := presets.Get(config.Preset)
	if nil != err {
		return err
	}

	profile := game.Profile{Name: "bot", IsBot: true}
	if err := profile.Mode.UnmarshalText([]byte(*recordMode)); nil != err {
		return err
	}
	if err := profile.Instrument.UnmarshalText([]byte(*recordInstrument)); nil != err {
		return err
	}
	if err := profile.Difficulty.UnmarshalText([]byte(*recordDifficulty)); nil != err {
		return err
	}

	r, err := replay.Record(chart.Name+" (bot)", chart,
		[]replay.Frame{{Profile: profile, Parameters: params}}, config.FPS)
	if nil != err {
		return err
	}
	if track, ok := chart.Track(profile.Instrument, profile.Difficulty); ok {
		log.Logger.Info("recorded bot replay", zap.String("chart", chart.Name),
			zap.Int("notes", track.NoteCount()), zap.Int("score", r.Frames[0].Stats.BaseStats().TotalScore()))
	}

	out := os.Stdout
	if *recordOutput != "" {
		f, err := os.Create(*recordOutput)
		if nil != err {
			return err
		}
		defer f.Close()
		out = f
	}
	return r.Encode(out)
}
