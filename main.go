package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ReviewBoard/internal/config"
	"ReviewBoard/internal/decode"
	"ReviewBoard/internal/editor"
	"ReviewBoard/internal/export"
	"ReviewBoard/internal/net"
	"ReviewBoard/internal/script"
	"ReviewBoard/internal/state"
	"ReviewBoard/internal/ui"
)

var (
	cfgFile string
	envFile string
)

func main() {
	root := &cobra.Command{
		Use:           "reviewboard",
		Short:         "Mark up submitted documents and attach the result as feedback",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with REVIEWBOARD_* overrides")
	root.AddCommand(newEditCmd(), newBakeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is everything a command needs to run one review.
type session struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *net.Client
	deps   editor.Deps
}

func newSession() (*session, error) {
	cfg, err := config.Load(cfgFile, envFile)
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.Log, os.Stderr)

	client, err := net.NewClient(net.Config{
		BaseURL: cfg.Server.BaseURL,
		Token:   cfg.Server.Token,
		Timeout: cfg.Server.Timeout,
	}, log)
	if err != nil {
		return nil, err
	}
	typesetter, err := export.NewTypesetter()
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		log:    log,
		client: client,
		deps: editor.Deps{
			Fetcher:    client,
			Uploader:   client,
			Decoder:    decode.NewDecoder(decode.FitzOpener(cfg.Decode.RenderScale), cfg.MaxFileBytes(), log),
			Compositor: export.NewCompositor(typesetter),
			Exporter:   export.NewExporter(log),
			Tools:      cfg.ToolState(),
		},
	}, nil
}

func newEditCmd() *cobra.Command {
	var (
		asset     state.ReviewAsset
		kind      string
		submitted int
		replace   int
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the review window for one submitted file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			if err := resolveKind(&asset, kind); err != nil {
				return err
			}
			opts := editor.SaveOptions{SubmissionID: submitted}
			if cmd.Flags().Changed("replace") {
				opts.ReplaceFeedbackFileID = &replace
			}
			ui.RunApp(editor.New(s.deps, s.log), asset, opts, s.log)
			return nil
		},
	}
	cmd.Flags().StringVar(&asset.SourceFileName, "file-name", "", "original file name of the submission")
	cmd.Flags().StringVar(&asset.ReviewFilePath, "path", "", "server path of the file to review")
	cmd.Flags().StringVar(&kind, "kind", "", "image or pdf (default: from the file name)")
	cmd.Flags().IntVar(&asset.SubmissionFileID, "submission-file-id", 0, "id of the submitted file under review")
	cmd.Flags().IntVar(&submitted, "submission", 0, "submission that receives the feedback")
	cmd.Flags().IntVar(&replace, "replace", 0, "feedback file to replace instead of adding a new one")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("submission")
	return cmd
}

func resolveKind(asset *state.ReviewAsset, kind string) error {
	if asset.SourceFileName == "" {
		asset.SourceFileName = filepath.Base(asset.ReviewFilePath)
	}
	if kind != "" {
		asset.ReviewKind = state.ReviewKind(kind)
		return nil
	}
	k, err := decode.KindForFileName(asset.SourceFileName)
	if err != nil {
		return err
	}
	asset.ReviewKind = k
	return nil
}

func newBakeCmd() *cobra.Command {
	var (
		dryRun bool
		outDir string
		source string
	)
	cmd := &cobra.Command{
		Use:   "bake SCRIPT",
		Short: "Replay a YAML markup script and upload the baked feedback file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			sc, err := script.Load(args[0])
			if err != nil {
				return err
			}
			if source != "" {
				s.deps.Fetcher = localFetcher{path: source}
			}
			if dryRun {
				s.deps.Uploader = dirUploader{dir: outDir, log: s.log}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ed := editor.New(s.deps, s.log)
			defer ed.Close()
			if err := ed.Load(ctx, sc.Asset); err != nil {
				return err
			}
			if err := sc.Apply(ed); err != nil {
				return err
			}
			res, err := ed.Save(ctx, sc.SaveOptions())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d page(s), %d bytes)\n", res.Message, res.FileName, res.Pages, res.Bytes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "write the feedback file to --out instead of uploading it")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory for --dry-run")
	cmd.Flags().StringVar(&source, "source", "", "read the submitted file from this local path instead of the server")
	return cmd
}

type localFetcher struct{ path string }

func (f localFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrFetchFailed, err)
	}
	return data, nil
}

type dirUploader struct {
	dir string
	log zerolog.Logger
}

func (u dirUploader) Save(_ context.Context, r net.UploadRequest) (net.FeedbackFile, error) {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return net.FeedbackFile{}, fmt.Errorf("%w: %v", state.ErrUploadFailed, err)
	}
	p := filepath.Join(u.dir, r.File.Name)
	if err := os.WriteFile(p, r.File.Data, 0o644); err != nil {
		return net.FeedbackFile{}, fmt.Errorf("%w: %v", state.ErrUploadFailed, err)
	}
	u.log.Info().Str("path", p).Msg("wrote feedback file")
	return net.FeedbackFile{SubmissionID: r.SubmissionID, FileName: r.File.Name, FilePath: p}, nil
}
