// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tjdeveng/KeepTower-sub001/internal/app"
	"github.com/tjdeveng/KeepTower-sub001/internal/config"
	"github.com/tjdeveng/KeepTower-sub001/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub001/internal/hashing"
	"github.com/tjdeveng/KeepTower-sub001/internal/logger"
	"github.com/tjdeveng/KeepTower-sub001/internal/service"
	"github.com/tjdeveng/KeepTower-sub001/internal/store"
	"github.com/tjdeveng/KeepTower-sub001/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const usage = `Usage: keeptower [flags] <command> [args]

Commands:
  create                   create a new vault with an administrator user
  open                     open the vault and list stored records
  add-user <name> [admin]  add a user to the vault
  remove-user <name>       remove a user from the vault
  passwd                   change your own password
  users                    list key slots
  migrate-status           show username-hash migration progress

The vault path comes from -f, VAULT_PATH, or the JSON config.
`

func main() {
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error getting configs:", err)
		os.Exit(1)
	}

	log := logger.NewLogger("keeptower", cfg.Log.Level)
	log.Debug().
		Str("version", buildInfo(buildVersion)).
		Str("date", buildInfo(buildDate)).
		Str("commit", buildInfo(buildCommit)).
		Msg("starting")

	if flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if cfg.Vault.Path == "" {
		fmt.Fprintln(os.Stderr, "no vault path configured, use -f or VAULT_PATH")
		os.Exit(2)
	}

	manager := service.NewManager(
		store.NewFileService(log.GetChildLogger()),
		crypto.NewKeyService(),
		hashing.NewService(log.GetChildLogger()),
		cfg,
		log,
	)
	defer manager.Close()

	if err := run(manager, cfg, flag.Args()); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", app.UserMessage(err))
		os.Exit(1)
	}
}

func run(manager *service.Manager, cfg *config.StructuredConfig, args []string) error {
	command, rest := args[0], args[1:]
	path := cfg.Vault.Path

	switch command {
	case "create":
		return runCreate(manager, path)
	case "open":
		return runOpen(manager, path)
	case "add-user":
		return runAddUser(manager, path, rest)
	case "remove-user":
		return runRemoveUser(manager, path, rest)
	case "passwd":
		return runPasswd(manager, path)
	case "users":
		return runUsers(manager, path)
	case "migrate-status":
		return runMigrateStatus(manager, path)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runCreate(manager *service.Manager, path string) error {
	username := prompt("Administrator username: ")
	password := prompt("Administrator password: ")

	err := manager.Create(path, username, password, func(percent int, stage string) {
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", percent, stage)
	})
	if err != nil {
		return err
	}
	fmt.Printf("vault created at %s\n", path)
	return nil
}

func runOpen(manager *service.Manager, path string) error {
	session, err := login(manager, path)
	if err != nil {
		return err
	}
	fmt.Printf("opened as %s (%s)\n", session.Username, session.Role)

	accounts, err := manager.ListAccounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("no stored records")
		return nil
	}
	for _, a := range accounts {
		marker := " "
		if a.Favorite {
			marker = "*"
		}
		fmt.Printf("%s %-30s %-25s %s\n", marker, a.Name, a.Username, a.URL)
	}
	return nil
}

func runAddUser(manager *service.Manager, path string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("add-user requires a username")
	}
	newUser := args[0]
	role := models.RoleStandardUser
	if len(args) > 1 && args[1] == "admin" {
		role = models.RoleAdministrator
	}

	if _, err := login(manager, path); err != nil {
		return err
	}
	newPassword := prompt(fmt.Sprintf("Initial password for %s: ", newUser))

	if err := manager.AddUser(newUser, newPassword, role, true); err != nil {
		return err
	}
	fmt.Printf("user %s added as %s, password change required on first login\n", newUser, role)
	return nil
}

func runRemoveUser(manager *service.Manager, path string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("remove-user requires a username")
	}
	if _, err := login(manager, path); err != nil {
		return err
	}
	if err := manager.RemoveUser(args[0]); err != nil {
		return err
	}
	fmt.Printf("user %s removed\n", args[0])
	return nil
}

func runPasswd(manager *service.Manager, path string) error {
	username := prompt("Username: ")
	oldPassword := prompt("Current password: ")
	if _, err := manager.Open(path, username, oldPassword); err != nil {
		return err
	}
	newPassword := prompt("New password: ")
	confirm := prompt("Repeat new password: ")
	if newPassword != confirm {
		return fmt.Errorf("passwords do not match")
	}
	if err := manager.ChangeUserPassword(oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Println("password changed")
	return nil
}

func runUsers(manager *service.Manager, path string) error {
	if _, err := login(manager, path); err != nil {
		return err
	}
	users, err := manager.ListUsers()
	if err != nil {
		return err
	}

	fmt.Printf("%-4s %-16s %-14s %-20s %s\n", "slot", "user", "role", "last login", "flags")
	for _, u := range users {
		name := u.Username
		if name == "" {
			name = "(hashed)"
		}
		var flags []string
		if u.MustChangePassword {
			flags = append(flags, "must-change")
		}
		if u.TokenEnrolled {
			flags = append(flags, "token")
		}
		if u.MigrationStatus != models.MigrationMigrated {
			flags = append(flags, "pending-migration")
		}
		fmt.Printf("%-4d %-16s %-14s %-20s %s\n",
			u.SlotIndex, name, u.Role, formatTime(u.LastLoginAt), strings.Join(flags, ","))
	}
	return nil
}

func runMigrateStatus(manager *service.Manager, path string) error {
	if _, err := login(manager, path); err != nil {
		return err
	}
	report, err := manager.MigrationStatus()
	if err != nil {
		return err
	}

	if !report.Enabled {
		fmt.Printf("no migration active, current algorithm %s\n", report.Current)
		return nil
	}
	fmt.Printf("migrating %s -> %s since %s\n",
		report.Previous, report.Current, formatTime(report.StartedAt))
	fmt.Printf("%d slot(s) migrated, %d remaining\n", report.Migrated, report.Remaining)
	return nil
}

func login(manager *service.Manager, path string) (*models.UserSession, error) {
	username := prompt("Username: ")
	password := prompt("Password: ")
	return manager.Open(path, username, password)
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func formatTime(ts int64) string {
	if ts == 0 {
		return "never"
	}
	return time.Unix(ts, 0).UTC().Format(time.DateTime)
}

func buildInfo(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
