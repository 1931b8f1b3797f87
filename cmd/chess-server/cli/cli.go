package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"golang.org/x/term"

	"chesscore/internal/storage"
)

const minPasswordLen = 8

// Run dispatches the db administration subcommands.
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, user")
	}

	switch args[0] {
	case "init":
		return cmdInit(args[1:])
	case "delete":
		return cmdDelete(args[1:])
	case "query":
		return cmdQuery(args[1:])
	case "user":
		if len(args) < 2 {
			return fmt.Errorf("user subcommand required: add, delete, set-password, list")
		}
		return cmdUser(args[1], args[2:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// openStore validates the -path flag value and opens the database.
func openStore(path string) (*storage.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := storage.NewStore(path, false)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// resolvePassword picks between the -password flag and an interactive
// terminal prompt, enforcing the minimum length either way.
func resolvePassword(flagValue string, interactive bool, prompt string) (string, error) {
	var pw string
	switch {
	case interactive && flagValue != "":
		return "", fmt.Errorf("cannot use -interactive with -password")
	case interactive:
		fmt.Print(prompt)
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		pw = string(raw)
	case flagValue != "":
		pw = flagValue
	default:
		return "", fmt.Errorf("password required: use -password or -interactive")
	}
	if len(pw) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return pw, nil
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "database file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	fmt.Printf("database ready: %s\n", *path)
	return nil
}

func cmdDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "database file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	// DeleteDB closes the handle itself before unlinking the file.
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	fmt.Printf("database removed: %s\n", *path)
	return nil
}

func cmdQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", "", "database file path")
	gameID := fs.String("gameId", "", "filter by game ID (* for all)")
	playerID := fs.String("playerId", "", "filter by player ID (* for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(*gameID, *playerID)
	if err != nil {
		return fmt.Errorf("query games: %w", err)
	}
	if len(games) == 0 {
		fmt.Println("no games found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tWHITE\tBLACK\tSTARTED")
	for _, g := range games {
		fmt.Fprintf(w, "%.8s\t%s\t%s\t%s\n",
			g.GameID, g.WhiteName, g.BlackName,
			g.StartTimeUTC.Format(time.DateTime))
	}
	w.Flush()
	fmt.Printf("\n%d game(s)\n", len(games))
	return nil
}

func cmdUser(sub string, args []string) error {
	switch sub {
	case "add":
		return cmdUserAdd(args)
	case "delete":
		return cmdUserDelete(args)
	case "set-password":
		return cmdUserSetPassword(args)
	case "list":
		return cmdUserList(args)
	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
}

func cmdUserAdd(args []string) error {
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	path := fs.String("path", "", "database file path")
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "email address (optional)")
	password := fs.String("password", "", "password (omit and use -interactive to prompt)")
	interactive := fs.Bool("interactive", false, "prompt for the password on the terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username required")
	}

	pw, err := resolvePassword(*password, *interactive, "Enter password: ")
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(pw)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := freshUserID(store)
	if err != nil {
		return err
	}

	err = store.CreateUser(storage.UserRecord{
		UserID:       userID,
		Username:     strings.ToLower(*username),
		Email:        strings.ToLower(*email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("created user %s (id %s)\n", *username, userID)
	return nil
}

// freshUserID draws UUIDs until one is unused.
func freshUserID(store *storage.Store) (string, error) {
	for range 10 {
		id := uuid.New().String()
		if _, err := store.GetUserByID(id); err != nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate an unused user ID")
}

func cmdUserDelete(args []string) error {
	fs := flag.NewFlagSet("user delete", flag.ContinueOnError)
	path := fs.String("path", "", "database file path")
	username := fs.String("username", "", "username to delete")
	userID := fs.String("id", "", "user ID to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*username == "") == (*userID == "") {
		return fmt.Errorf("exactly one of -username or -id required")
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	target := *userID
	if target == "" {
		user, err := store.GetUserByUsername(*username)
		if err != nil {
			return fmt.Errorf("no such user: %s", *username)
		}
		target = user.UserID
	}

	if err := store.DeleteUserByID(target); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	fmt.Printf("deleted user %s\n", target)
	return nil
}

func cmdUserSetPassword(args []string) error {
	fs := flag.NewFlagSet("user set-password", flag.ContinueOnError)
	path := fs.String("path", "", "database file path")
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "new password")
	interactive := fs.Bool("interactive", false, "prompt for the password on the terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username required")
	}

	pw, err := resolvePassword(*password, *interactive, "Enter new password: ")
	if err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.GetUserByUsername(*username)
	if err != nil {
		return fmt.Errorf("no such user: %s", *username)
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := store.UpdateUserPassword(user.UserID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	fmt.Printf("password updated for %s\n", *username)
	return nil
}

func cmdUserList(args []string) error {
	fs := flag.NewFlagSet("user list", flag.ContinueOnError)
	path := fs.String("path", "", "database file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.GetAllUsers()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Println("no users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCREATED\tLAST LOGIN")
	for _, u := range users {
		lastLogin := "never"
		if u.LastLoginAt != nil {
			lastLogin = u.LastLoginAt.Format(time.DateTime)
		}
		email := u.Email
		if email == "" {
			email = "-"
		}
		fmt.Fprintf(w, "%.8s\t%s\t%s\t%s\t%s\n",
			u.UserID, u.Username, email,
			u.CreatedAt.Format(time.DateTime), lastLogin)
	}
	w.Flush()
	fmt.Printf("\n%d user(s)\n", len(users))
	return nil
}
