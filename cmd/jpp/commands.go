package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lemonberrylabs/jpp/pkg/api"
	grpcapi "github.com/lemonberrylabs/jpp/pkg/api/grpc"
	"github.com/lemonberrylabs/jpp/pkg/config"
	"github.com/lemonberrylabs/jpp/pkg/dump"
	"github.com/lemonberrylabs/jpp/pkg/lexer"
	"github.com/lemonberrylabs/jpp/pkg/pipeline"
	"github.com/lemonberrylabs/jpp/pkg/store"
	"github.com/lemonberrylabs/jpp/web"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jpp",
		Short:         "Interpreter for the jpp scripting language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("jpp version {{.Version}}\n")
	root.PersistentFlags().String("config", "", "YAML config file (env JPP_CONFIG)")

	root.AddCommand(newRunCmd(), newCheckCmd(), newTokensCmd(), newASTCmd(), newServeCmd())
	return root
}

// loadConfig loads the --config file and applies the language flags that
// were set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("no-type-mismatch") {
		v, _ := flags.GetBool("no-type-mismatch")
		cfg.Checker.ReportTypeMismatch = !v
	}
	if flags.Changed("leak-block-scopes") {
		v, _ := flags.GetBool("leak-block-scopes")
		cfg.Interpreter.PopBlockScopes = !v
	}
	if flags.Changed("max-call-depth") {
		cfg.Interpreter.MaxCallDepth, _ = flags.GetInt("max-call-depth")
	}
	return cfg, cfg.Validate()
}

func addLanguageFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-type-mismatch", false, "Do not report type mismatches during the semantic check")
	cmd.Flags().Bool("leak-block-scopes", false, "Keep plain block scopes on the stack after the block runs")
	cmd.Flags().Int("max-call-depth", 0, "Maximum nested function calls")
}

// readSource reads the program named by arg, where "-" is stdin.
func readSource(cmd *cobra.Command, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("reading program: %w", err)
	}
	return string(data), nil
}

// finish reports res on stderr and converts its exit code.
func finish(cmd *cobra.Command, res *pipeline.Result) error {
	if err := pipeline.Report(cmd.ErrOrStderr(), res); err != nil {
		return err
	}
	if res.ExitCode != pipeline.ExitOK {
		return &exitError{code: res.ExitCode}
	}
	return nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Parse, check and execute a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			opts := cfg.PipelineOptions()
			opts.Out = cmd.OutOrStdout()
			return finish(cmd, pipeline.Run(cmd.Context(), source, opts))
		},
	}
	addLanguageFlags(cmd)
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Parse and check a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			res := pipeline.Check(source, cfg.PipelineOptions().Checker)
			if !res.Failed() {
				fmt.Fprintln(cmd.OutOrStdout(), "OK")
			}
			return finish(cmd, res)
		},
	}
	addLanguageFlags(cmd)
	return cmd
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tok := range lexer.Tokenize(source) {
				fmt.Fprintf(out, "%d:%d\t%s\t%q\n", tok.Line, tok.Pos, tok.Kind.Name(), tok.Text)
			}
			return nil
		},
	}
}

func newASTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast FILE",
		Short: "Print the syntax tree of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			res := pipeline.Parse(source)
			if res.Failed() {
				return finish(cmd, res)
			}
			return dump.Fprint(cmd.OutOrStdout(), res.Program)
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, gRPC API and web UI",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("programs-dir", "", "Directory of .jpp programs to load at startup (env JPP_PROGRAMS_DIR)")
	addLanguageFlags(cmd)
	return cmd
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Server.Port = fmt.Sprintf("%d", v)
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.Server.GRPCPort = fmt.Sprintf("%d", v)
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if v, _ := cmd.Flags().GetString("programs-dir"); v != "" {
		cfg.Server.ProgramsDir = v
	}

	s := store.New()
	server := api.New(s, cfg)

	if cfg.Server.ProgramsDir != "" {
		log.Printf("Loading programs directory: %s", cfg.Server.ProgramsDir)
		if err := server.LoadDir(cfg.Server.ProgramsDir); err != nil {
			log.Printf("Warning: failed to load programs directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		web.New(s).Register(server.App())
	}()

	grpcServer := grpcapi.New(s, server, cfg.PipelineOptions())
	go func() {
		log.Printf("jpp gRPC server listening on %s", cfg.GRPCAddr())
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down jpp server...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("jpp server listening on %s (run timeout %s)", cfg.Addr(), cfg.Server.RunTimeout)
	return server.Listen(cfg.Addr())
}
