package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/ardikafs/kartusoal/internal/client"
	"github.com/ardikafs/kartusoal/internal/handler"
	appI18n "github.com/ardikafs/kartusoal/internal/i18n"
	"github.com/ardikafs/kartusoal/internal/identity"
	"github.com/ardikafs/kartusoal/internal/llm"
	"github.com/ardikafs/kartusoal/internal/model"
	"github.com/ardikafs/kartusoal/internal/session"
	"github.com/ardikafs/kartusoal/internal/store"
	"github.com/ardikafs/kartusoal/internal/tui"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kartusoal",
		Short: "Flashcard quiz server and player",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), generateCmd(), exportCmd(), playCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `kartusoal --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "kartusoal.db", "SQLite database path")
	f.StringSliceP("questions", "q", nil, "Paths to question document JSON files (repeatable)")
	f.StringP("lang", "l", "id", "Default language for API messages (en, id)")
	f.Bool("secure-cookies", true, "Set Secure flag on admin cookies")
	f.String("admin-password", "", "Initial admin password (or set KARTUSOAL_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import question document JSON files into the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "kartusoal.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a question document from source text via an LLM",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.StringP("title", "t", "", "Document title (required)")
	f.StringP("source", "s", "", "Path to the source text file (required)")
	f.IntP("num-questions", "n", 20, "Number of questions to generate")
	f.StringP("lang", "l", "id", "Question language (en, id)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all quiz sessions as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "kartusoal.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <code-name>",
		Short: "Play a quiz in the terminal against a running server",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
	f := cmd.Flags()
	f.String("server", "http://localhost:8080", "Quiz server base URL")
	f.String("log-level", "warn", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("KARTUSOAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("kartusoal")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/kartusoal")
	v.AddConfigPath("/etc/kartusoal")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if err := db.CleanupExpiredAuthSessions(); err != nil {
		slog.Warn("cleanup expired auth sessions", "error", err)
	}

	if err := importDocuments(db, v.GetStringSlice("questions")); err != nil {
		return fmt.Errorf("import documents: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := model.ServerConfig{
		Addr:          v.GetString("addr"),
		SecureCookies: v.GetBool("secure-cookies"),
		DefaultLang:   lang,
	}

	h := handler.New(db, session.NewService(db), cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(handler.CORS)
	r.Use(appI18n.Middleware())
	h.Routes(r)

	docs, err := db.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	slog.Info("starting server",
		"addr", cfg.Addr,
		"db", v.GetString("db"),
		"documents", docs,
		"lang", lang,
	)
	return http.ListenAndServe(cfg.Addr, r)
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return importDocuments(db, args)
}

// importDocuments loads question document files, skipping files whose
// content has already been imported. A file that changed since its
// import is skipped with a warning: replacing a document would strand
// sessions that embedded the old copy.
func importDocuments(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("document file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("document file changed since last import, skipping to avoid breaking existing sessions",
				"path", path)
			continue
		}

		var imp model.DocumentImport
		if err := json.Unmarshal(data, &imp); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if imp.CodeName == "" {
			return fmt.Errorf("%s: missing code_name", path)
		}
		for _, doc := range imp.Documents {
			if err := doc.Validate(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		for _, doc := range imp.Documents {
			if _, err := db.InsertDocument(imp.CodeName, doc); err != nil {
				return fmt.Errorf("insert document from %s: %w", path, err)
			}
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported documents", "path", path, "code_name", imp.CodeName, "count", len(imp.Documents))
	}
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	source, err := os.ReadFile(v.GetString("source"))
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)

	slog.Info("generating question document",
		"title", v.GetString("title"),
		"num_questions", v.GetInt("num-questions"),
		"model", v.GetString("llm-model"),
	)
	doc, err := llmClient.GenerateDocument(
		cmd.Context(),
		v.GetString("title"),
		string(source),
		v.GetInt("num-questions"),
		v.GetString("lang"),
	)
	if err != nil {
		return fmt.Errorf("generate document: %w", err)
	}
	doc.SourceDocument = v.GetString("source")

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeOutput(v.GetString("output"), data)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAllSessions()
	if err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeOutput(v.GetString("output"), data)
}

func runPlay(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ids, err := identity.NewFileStore()
	if err != nil {
		return fmt.Errorf("identity store: %w", err)
	}
	api := client.New(v.GetString("server"))

	// Probe the catalog before taking over the terminal.
	names, err := api.CodeNames(context.Background())
	if err != nil {
		return fmt.Errorf("reach server %s: %w", v.GetString("server"), err)
	}
	codeName := args[0]
	found := false
	for _, n := range names {
		if n == codeName {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("code name %q not found on server (available: %s)",
			codeName, strings.Join(names, ", "))
	}

	return tui.Run(api, ids, codeName)
}

func writeOutput(outPath string, data []byte) error {
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or KARTUSOAL_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
