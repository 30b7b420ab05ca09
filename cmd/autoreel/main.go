package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/autoreel-labs/autoreel/internal/artifact"
	"github.com/autoreel-labs/autoreel/internal/config"
	"github.com/autoreel-labs/autoreel/internal/elevenlabs"
	"github.com/autoreel-labs/autoreel/internal/media"
	"github.com/autoreel-labs/autoreel/internal/notify"
	"github.com/autoreel-labs/autoreel/internal/pipeline"
	"github.com/autoreel-labs/autoreel/internal/prompts"
	"github.com/autoreel-labs/autoreel/internal/script"
	"github.com/autoreel-labs/autoreel/internal/stability"
	"github.com/autoreel-labs/autoreel/internal/youtube"
)

const (
	defaultOutputDir  = "output"
	defaultPromptFile = ""
	defaultLogLevel   = "info"
)

var (
	outputDir  string
	logLevel   string
	configFile string
	promptFile string
	promptIdx  int
	topicFlag  string
	styleFlag  string
	lengthFlag string
	skipUpload bool
	dryRun     bool
	bucketFlag string
	regionFlag string

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "autoreel",
	Short: "Automated daily video content pipeline",
	Long: `autoreel generates a narrated slideshow video for a daily topic:
script via an LLM, scene images via Stability AI, narration via
ElevenLabs, assembly via ffmpeg, then YouTube upload and artifact
publication.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("autoreel %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full video generation pipeline",
	Long: `Run resolves a topic prompt (explicit index, or today's day of the
year against the prompt store), generates the script, images, and
narration, assembles the final video, and uploads it.`,
	Run: func(cmd *cobra.Command, args []string) {
		log := pipeline.NewLogger(pipeline.LogLevel(logLevel))

		if err := godotenv.Load(); err == nil {
			log.Debug("Loaded environment from .env file")
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			log.Error("Operation failed: load_config", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			log.Error("Operation failed: validate_config", slog.String("error", err.Error()))
			os.Exit(1)
		}

		if missing := config.MissingSecrets(); len(missing) > 0 {
			if dryRun {
				log.Warn("Missing required environment variables",
					slog.String("missing", strings.Join(missing, ", ")))
			} else {
				log.Error("Operation failed: validate_environment",
					slog.String("missing", strings.Join(missing, ", ")),
					slog.String("error", pipeline.ErrMissingSecrets.Error()))
				os.Exit(1)
			}
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		clock := clockwork.NewRealClock()

		var prompt prompts.Prompt
		switch {
		case topicFlag != "":
			prompt = prompts.Prompt{Topic: topicFlag, Style: styleFlag, Length: lengthFlag}
			if prompt.Style == "" {
				prompt.Style = prompts.DefaultStyle
			}
			if prompt.Length == "" {
				prompt.Length = prompts.DefaultLength
			}
			log.Info("Using explicit prompt", slog.String("topic", prompt.Topic))
		case promptFile != "":
			prompt = prompts.Resolve(log, promptFile, promptIdx, clock)
		default:
			log.Error("Operation failed: resolve_prompt",
				slog.String("error", "one of --topic or --from-prompt-file is required"))
			os.Exit(1)
		}

		llm, err := script.NewLLMClient(ctx, log, cfg.Script)
		if err != nil {
			log.Error("Operation failed: new_llm_client", slog.String("error", err.Error()))
			os.Exit(1)
		}

		var publisher pipeline.ArtifactPublisher
		if cfg.Artifact.Bucket != "" {
			pub, err := artifact.New(ctx, log, cfg.Artifact, clock)
			if err != nil {
				log.Error("Operation failed: new_artifact_publisher", slog.String("error", err.Error()))
				os.Exit(1)
			}
			publisher = pub
		}

		runner, err := pipeline.New(pipeline.Config{
			Logger: log,
			Clock:  clock,

			Script: script.NewGenerator(log, llm, cfg.Script),
			Frames: stability.NewRenderer(log,
				stability.NewClient(log, cfg.Image),
				clock,
				time.Duration(cfg.Image.RequestDelayMS)*time.Millisecond,
				cfg.Image.Width, cfg.Image.Height),
			Voice: elevenlabs.NewSynthesizer(log,
				elevenlabs.NewClient(log, cfg.Voice),
				cfg.Voice.Workers),
			Media:     media.NewMerger(log, nil, cfg.Video),
			Uploader:  youtube.NewClient(log),
			Publisher: publisher,
			Notifier:  notify.New(log, cfg.Notify.WebhookURL),
			Cleaner: func(dir string) error {
				return media.CleanupOutputDir(log, dir)
			},

			OutputDir:  outputDir,
			SkipUpload: skipUpload,
			Subtitles:  cfg.Video.Subtitles,
			DryRun:     dryRun,
		})
		if err != nil {
			log.Error("Operation failed: new_pipeline", slog.String("error", err.Error()))
			os.Exit(1)
		}

		result, err := runner.Run(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Operation cancelled by signal")
				os.Exit(1)
			}
			log.Error("Operation failed: run_pipeline", slog.String("error", err.Error()))
			os.Exit(1)
		}

		log.Info("Operation completed: run_pipeline",
			slog.String("video", result.VideoPath),
			slog.String("video_url", result.VideoURL),
			slog.String("artifacts", result.ArtifactURL))
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <dir>",
	Short: "Publish an existing run directory to the artifact bucket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := pipeline.NewLogger(pipeline.LogLevel(logLevel))

		if err := godotenv.Load(); err == nil {
			log.Debug("Loaded environment from .env file")
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			log.Error("Operation failed: load_config", slog.String("error", err.Error()))
			os.Exit(1)
		}
		cfg.ApplyOverrides(&bucketFlag, &regionFlag)
		if err := cfg.Validate(); err != nil {
			log.Error("Operation failed: validate_config", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if cfg.Artifact.Bucket == "" {
			log.Error("Operation failed: new_artifact_publisher",
				slog.String("error", pipeline.ErrBucketNotSet.Error()))
			os.Exit(1)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		runDir := args[0]
		paths, err := media.KeptFiles(runDir)
		if err != nil {
			log.Error("Operation failed: list_artifacts", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pub, err := artifact.New(ctx, log, cfg.Artifact, nil)
		if err != nil {
			log.Error("Operation failed: new_artifact_publisher", slog.String("error", err.Error()))
			os.Exit(1)
		}

		url, err := pub.PublishRun(ctx, filepath.Base(runDir), paths)
		if err != nil {
			log.Error("Operation failed: publish_artifacts", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("Operation completed: publish_artifacts", slog.String("url", url))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", defaultOutputDir, "Directory to store generated artifacts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to TOML configuration file")

	runCmd.Flags().StringVar(&promptFile, "from-prompt-file", defaultPromptFile, "JSON file containing the prompt store")
	runCmd.Flags().IntVar(&promptIdx, "prompt-index", 0, "1-based prompt index; 0 selects by day of the year")
	runCmd.Flags().StringVar(&topicFlag, "topic", "", "Explicit topic, bypasses the prompt store")
	runCmd.Flags().StringVar(&styleFlag, "style", "", "Content style for an explicit topic (educational, entertaining, narrative, technical)")
	runCmd.Flags().StringVar(&lengthFlag, "length", "", "Target length for an explicit topic (short, medium, long)")
	runCmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "Skip the YouTube upload stage")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve the prompt and log the plan without calling any external API")

	publishCmd.Flags().StringVar(&bucketFlag, "bucket", "", "Artifact bucket, overrides configuration")
	publishCmd.Flags().StringVar(&regionFlag, "region", "", "Artifact bucket region, overrides configuration")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
