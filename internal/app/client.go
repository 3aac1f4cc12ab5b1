package app

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hitoshi/classmate/internal/apiclient"
	"github.com/hitoshi/classmate/internal/auth"
	"github.com/hitoshi/classmate/internal/classroom"
	"github.com/hitoshi/classmate/internal/config"
	"github.com/hitoshi/classmate/internal/credential"
	"github.com/hitoshi/classmate/internal/database"
	"github.com/hitoshi/classmate/internal/endpoint"
	"github.com/hitoshi/classmate/internal/feed"
	"github.com/hitoshi/classmate/internal/logger"
	"github.com/hitoshi/classmate/internal/model"
	"github.com/hitoshi/classmate/internal/repository"
	"github.com/hitoshi/classmate/internal/security"
	"github.com/hitoshi/classmate/internal/user"
)

// errUsage はフラグや引数の不備を表す。
var errUsage = errors.New("invalid arguments")

// clientEnv はクライアントコマンドが共有する依存関係。
type clientEnv struct {
	db        *sql.DB
	creds     *credential.Manager
	api       *classroom.Client
	auth      *auth.Service
	users     *user.Service
	sanitizer security.TextSanitizer
	out       io.Writer
	logger    *slog.Logger
}

// openClient はローカルストアを開き、クライアントの依存関係を組み立てる。
func openClient(ctx context.Context, cfg *config.ClientConfig, out io.Writer, log *slog.Logger) (*clientEnv, error) {
	// 1. ローカルストア
	if err := ensureStoreDir(cfg.StorePath); err != nil {
		return nil, err
	}
	if err := database.RunMigrations(cfg.StorePath); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}
	db, err := database.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	// 2. 資格情報
	creds := credential.NewManager(repository.NewSQLiteKVRepo(db), cfg.DefaultKey, log)
	creds.Init(ctx)

	// 3. APIクライアント
	httpClient, err := apiclient.NewHTTPClient(0)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	resolver := endpoint.NewResolver(config.DefaultUpstreamBaseURL, cfg.ProxyURL)
	api := classroom.NewClient(apiclient.NewClient(httpClient, resolver, creds, log))

	return &clientEnv{
		db:        db,
		creds:     creds,
		api:       api,
		auth:      auth.NewService(api, creds, log),
		users:     user.NewService(api, log),
		sanitizer: security.NewTextSanitizer(),
		out:       out,
		logger:    log,
	}, nil
}

// Close はローカルストアを閉じる。
func (e *clientEnv) Close() error {
	return e.db.Close()
}

// runClient はクライアントコマンドを実行する。
func runClient(ctx context.Context, cmd Command, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("failed to load client config: %w", err)
	}
	log := logger.SetupWithLevel(stderr, logger.ParseLevel(cfg.LogLevel))

	env, err := openClient(ctx, cfg, stdout, log)
	if err != nil {
		return err
	}
	defer env.Close()

	switch cmd {
	case CommandLogin:
		return env.login(ctx, args)
	case CommandLogout:
		return env.logout(ctx)
	case CommandWhoami:
		return env.whoami(ctx)
	case CommandProfile:
		return env.profile(ctx)
	case CommandMembers:
		return env.members(ctx, args)
	case CommandFeed:
		return env.feed(ctx)
	case CommandPost:
		return env.post(ctx, args)
	case CommandComment:
		return env.comment(ctx, args)
	case CommandLike:
		return env.setLike(ctx, args, true)
	case CommandUnlike:
		return env.setLike(ctx, args, false)
	case CommandSetKey:
		return env.setKey(ctx, args)
	default:
		return fmt.Errorf("unsupported client command %q", cmd)
	}
}

func (e *clientEnv) login(ctx context.Context, args []string) error {
	fs := newFlagSet(CommandLogin)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("CLASSMATE_PASSWORD"), "account password (or CLASSMATE_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	p, err := e.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "signed in as %s <%s>\n", e.clean(displayName(p)), e.clean(p.Email))
	return nil
}

func (e *clientEnv) logout(ctx context.Context) error {
	e.auth.Logout(ctx)
	fmt.Fprintln(e.out, "signed out")
	return nil
}

func (e *clientEnv) whoami(ctx context.Context) error {
	p, err := e.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s <%s>\n", e.clean(displayName(p)), e.clean(p.Email))
	if p.Role != "" {
		fmt.Fprintf(e.out, "role: %s\n", e.clean(p.Role))
	}
	return nil
}

func (e *clientEnv) profile(ctx context.Context) error {
	if _, err := e.auth.CurrentUser(ctx); err != nil {
		return err
	}
	p, err := e.users.Profile(ctx)
	if err != nil {
		return err
	}
	renderProfile(e.out, p, e.clean)
	return nil
}

func (e *clientEnv) members(ctx context.Context, args []string) error {
	fs := newFlagSet(CommandMembers)
	year := fs.String("year", "", "enrollment year")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *year == "" && fs.NArg() > 0 {
		*year = fs.Arg(0)
	}

	members, err := e.users.Members(ctx, *year)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Fprintf(e.out, "no members found for %s\n", strings.TrimSpace(*year))
		return nil
	}
	for _, m := range members {
		renderMember(e.out, m, e.clean)
	}
	return nil
}

func (e *clientEnv) feed(ctx context.Context) error {
	board, err := e.loadBoard(ctx)
	if err != nil {
		return err
	}
	statuses := board.Snapshot()
	if len(statuses) == 0 {
		fmt.Fprintln(e.out, "no statuses yet")
		return nil
	}
	for _, s := range statuses {
		renderStatus(e.out, s, e.clean)
	}
	return nil
}

func (e *clientEnv) post(ctx context.Context, args []string) error {
	board, err := e.newBoard(ctx)
	if err != nil {
		return err
	}
	if err := board.Publish(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	if statuses := board.Snapshot(); len(statuses) > 0 {
		renderStatus(e.out, statuses[0], e.clean)
	}
	return nil
}

func (e *clientEnv) comment(ctx context.Context, args []string) error {
	fs := newFlagSet(CommandComment)
	statusID := fs.String("status", "", "status id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *statusID == "" {
		return fmt.Errorf("%w: -status is required", errUsage)
	}

	content := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(content) == "" {
		return feed.ErrEmptyContent
	}

	// 既存エントリの埋め込み作者情報を引き継ぐため、先に一覧を読み込む
	board, err := e.loadBoard(ctx)
	if err != nil {
		return err
	}
	if err := board.Comment(ctx, *statusID, content); err != nil {
		return err
	}
	if s, ok := board.Get(*statusID); ok {
		renderStatus(e.out, s, e.clean)
	}
	return nil
}

// setLike はステータスのいいね状態をwantに揃える。既に揃っている場合はAPIを呼ばない。
func (e *clientEnv) setLike(ctx context.Context, args []string, want bool) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("%w: status id is required", errUsage)
	}
	statusID := strings.TrimSpace(args[0])

	board, err := e.loadBoard(ctx)
	if err != nil {
		return err
	}
	s, ok := board.Get(statusID)
	if !ok {
		return fmt.Errorf("%w: %s", feed.ErrStatusNotFound, statusID)
	}

	if s.Liked() != want {
		if err := board.ToggleLike(ctx, statusID); err != nil {
			return err
		}
		s, _ = board.Get(statusID)
	}
	renderStatus(e.out, s, e.clean)
	return nil
}

func (e *clientEnv) setKey(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("%w: key is required", errUsage)
	}
	e.creds.SetServiceKey(ctx, strings.TrimSpace(args[0]))
	fmt.Fprintln(e.out, "service key saved")
	return nil
}

// newBoard はサインイン中のユーザーを閲覧者とするBoardを生成する。
func (e *clientEnv) newBoard(ctx context.Context) (*feed.Board, error) {
	p, err := e.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return feed.NewBoard(e.api, feed.Viewer{ID: p.ID, Email: p.Email}, e.logger), nil
}

// loadBoard はBoardを生成して一覧を読み込む。
func (e *clientEnv) loadBoard(ctx context.Context) (*feed.Board, error) {
	board, err := e.newBoard(ctx)
	if err != nil {
		return nil, err
	}
	if err := board.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	return board, nil
}

func (e *clientEnv) clean(s string) string {
	return e.sanitizer.Sanitize(s)
}

func newFlagSet(cmd Command) *flag.FlagSet {
	fs := flag.NewFlagSet(string(cmd), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// ensureStoreDir はローカルストアのディレクトリを作成する。
func ensureStoreDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}

func displayName(p model.Profile) string {
	if name := p.FullName(); name != "" {
		return name
	}
	return p.Email
}
