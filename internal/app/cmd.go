package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はプロキシサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はローカルストアのマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"

	// CommandLogin はサインインしてセッションを保存する。
	CommandLogin Command = "login"
	// CommandLogout はセッションを破棄する。
	CommandLogout Command = "logout"
	// CommandWhoami は保存済みセッションのユーザーを表示する。
	CommandWhoami Command = "whoami"
	// CommandProfile は詳細プロフィールを取得して表示する。
	CommandProfile Command = "profile"
	// CommandMembers は入学年度ごとのクラス名簿を表示する。
	CommandMembers Command = "members"
	// CommandFeed はステータスフィードを表示する。
	CommandFeed Command = "feed"
	// CommandPost はステータスを投稿する。
	CommandPost Command = "post"
	// CommandComment はステータスにコメントする。
	CommandComment Command = "comment"
	// CommandLike はステータスにいいねする。
	CommandLike Command = "like"
	// CommandUnlike はステータスのいいねを外す。
	CommandUnlike Command = "unlike"
	// CommandSetKey はサービスキーをローカルストアに保存する。
	CommandSetKey Command = "set-key"

	// CommandHelp は使い方を表示する。
	CommandHelp Command = "help"
	// CommandUnknown はサポート外のサブコマンド。
	CommandUnknown Command = "unknown"
)

var commands = map[string]Command{
	"serve":       CommandServe,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
	"login":       CommandLogin,
	"logout":      CommandLogout,
	"whoami":      CommandWhoami,
	"profile":     CommandProfile,
	"members":     CommandMembers,
	"feed":        CommandFeed,
	"post":        CommandPost,
	"comment":     CommandComment,
	"like":        CommandLike,
	"unlike":      CommandUnlike,
	"set-key":     CommandSetKey,
	"help":        CommandHelp,
	"-h":          CommandHelp,
	"--help":      CommandHelp,
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空の場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandUnknown
}

// IsClient はローカルストアとAPIクライアントを必要とするコマンドかどうかを返す。
func (c Command) IsClient() bool {
	switch c {
	case CommandLogin, CommandLogout, CommandWhoami, CommandProfile, CommandMembers,
		CommandFeed, CommandPost, CommandComment, CommandLike, CommandUnlike, CommandSetKey:
		return true
	}
	return false
}

const usage = `usage: classmate <command> [flags]

proxy:
  serve                          start the API proxy (default)
  healthcheck                    probe the local proxy /health endpoint

client:
  login -email E -password P     sign in and store the session
  logout                         clear the stored session
  whoami                         show the signed-in user
  profile                        show the full profile
  members -year Y                list classmates by enrollment year
  feed                           show the status feed
  post <text>                    publish a status
  comment -status ID <text>      comment on a status
  like <status-id>               like a status
  unlike <status-id>             remove your like
  set-key <key>                  store the service key override
  migrate                        apply local store migrations
`
