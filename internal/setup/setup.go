// Package setup provides the interactive terminal setup for hoopserve.
// Invoke with: hoopserve setup | hoopserve --setup | hoopserve -setup
package setup

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/platform"
)

// stdinReader is shared across all prompts. term.ReadPassword bypasses it via raw fd.
var stdinReader = bufio.NewReader(os.Stdin)

// setupConfig holds all values collected during setup.
type setupConfig struct {
	Port           string
	AdminAPIKey    string
	WorkDir        string
	TelegramToken  string
	TelegramChatID string
}

// Run executes the 4-step interactive setup.
// On success it writes .env to the current working directory.
func Run(version string) error {
	printBanner(version)

	cfg := &setupConfig{}
	var err error

	if cfg.Port, err = stepPort(); err != nil {
		return fmt.Errorf("setup: port: %w", err)
	}
	if cfg.AdminAPIKey, err = stepAdminKey(); err != nil {
		return fmt.Errorf("setup: admin key: %w", err)
	}
	if cfg.WorkDir, err = stepWorkDir(); err != nil {
		return fmt.Errorf("setup: workdir: %w", err)
	}
	if cfg.TelegramToken, cfg.TelegramChatID, err = stepTelegram(); err != nil {
		return fmt.Errorf("setup: telegram: %w", err)
	}
	if !stepConfirm(cfg) {
		fmt.Println("\n  Cancelled — no changes made.")
		return nil
	}
	if err := writeEnv(cfg); err != nil {
		return fmt.Errorf("setup: writeEnv: %w", err)
	}

	fmt.Println()
	fmt.Println("  " + c("\033[32m", "✓") + " .env saved — run hoopserve to start.")
	fmt.Printf("  API base:  http://localhost:%s/api/v1\n", cfg.Port)
	return nil
}

func printBanner(version string) {
	const width = 52
	fmt.Println()
	fmt.Println(c("\033[36m", "╔"+strings.Repeat("═", width)+"╗"))
	title := fmt.Sprintf("hoopserve setup  %s", version)
	pad := (width - len(title)) / 2
	fmt.Println(c("\033[36m", "║") + strings.Repeat(" ", pad) + title +
		strings.Repeat(" ", width-pad-len(title)) + c("\033[36m", "║"))
	fmt.Println(c("\033[36m", "╚"+strings.Repeat("═", width)+"╝"))
}

// ── Step 1: Port ─────────────────────────────────────────────────────────────

func stepPort() (string, error) {
	fmt.Println()
	fmt.Println(c("\033[33m", "━━━  1 / 4  —  LISTEN PORT  ━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println()
	for {
		portStr := prompt("Listen port [8080]", "8080")
		portNum, err := strconv.Atoi(strings.TrimSpace(portStr))
		if err != nil || portNum < 1 || portNum > 65535 {
			fmt.Println("  " + c("\033[31m", "✗") + " Invalid port — enter a number 1–65535.")
			continue
		}
		return strconv.Itoa(portNum), nil
	}
}

// ── Step 2: Admin API key ────────────────────────────────────────────────────

func stepAdminKey() (string, error) {
	fmt.Println()
	fmt.Println(c("\033[33m", "━━━  2 / 4  —  ADMIN API KEY  ━━━━━━━━━━━━━━━━━━━"))
	fmt.Println()
	fmt.Println("  Press Enter to generate a random key.")

	fmt.Print("  API key: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ReadPassword: %w", err)
	}
	key := string(raw)
	if key == "" {
		key, err = randomHex(24)
		if err != nil {
			return "", err
		}
		fmt.Printf("  Generated: %s\n", c("\033[36m", key))
		fmt.Println("  " + c("\033[33m", "Save this key — it is bcrypt-hashed on first start."))
	}
	return key, nil
}

// ── Step 3: Work directory ───────────────────────────────────────────────────

func stepWorkDir() (string, error) {
	fmt.Println()
	fmt.Println(c("\033[33m", "━━━  3 / 4  —  WORK DIRECTORY  ━━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	defaultDir := platform.DefaultWorkDir()
	fmt.Printf("  Recommended for your OS:\n  %s\n\n", c("\033[36m", defaultDir))

	dir := prompt(fmt.Sprintf("Path [%s]", defaultDir), defaultDir)
	return filepath.Clean(dir), nil
}

// ── Step 4: Telegram (optional) ──────────────────────────────────────────────

func stepTelegram() (token, chatID string, err error) {
	fmt.Println()
	fmt.Println(c("\033[33m", "━━━  4 / 4  —  TELEGRAM (OPTIONAL)  ━━━━━━━━━━━━━"))
	fmt.Println()
	fmt.Println("  Sends ingest failures and admin commands via a Telegram bot.")
	fmt.Println("  Leave blank to skip.")
	fmt.Println()

	token = prompt("Bot token []", "")
	if token == "" {
		return "", "", nil
	}
	chatID = prompt("Admin chat ID []", "")
	return token, chatID, nil
}

// ── Confirm & write ──────────────────────────────────────────────────────────

func stepConfirm(cfg *setupConfig) bool {
	fmt.Println()
	fmt.Println(c("\033[33m", "━━━  SUMMARY  ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println()
	fmt.Printf("  Port:      %s\n", cfg.Port)
	fmt.Printf("  Work dir:  %s\n", cfg.WorkDir)
	tg := "disabled"
	if cfg.TelegramToken != "" {
		tg = "enabled"
	}
	fmt.Printf("  Telegram:  %s\n", tg)
	fmt.Println()
	ans := prompt("Write .env? [Y/n]", "Y")
	return strings.ToUpper(strings.TrimSpace(ans)) != "N"
}

func writeEnv(cfg *setupConfig) error {
	var b strings.Builder
	b.WriteString("PORT=" + cfg.Port + "\n")
	b.WriteString("WORK_DIR=" + cfg.WorkDir + "\n")
	b.WriteString("ADMIN_API_KEY=" + cfg.AdminAPIKey + "\n")
	if cfg.TelegramToken != "" {
		b.WriteString("TELEGRAM_TOKEN=" + cfg.TelegramToken + "\n")
		b.WriteString("TELEGRAM_CHAT_ID=" + cfg.TelegramChatID + "\n")
	}
	if err := os.WriteFile(".env", []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("write .env: %w", err)
	}
	return nil
}

// ── Input helpers ────────────────────────────────────────────────────────────

func prompt(label, defaultVal string) string {
	fmt.Printf("  %s: ", label)
	line, _ := stdinReader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return defaultVal
	}
	return line
}

func supportsColor() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func c(ansi, text string) string {
	if !supportsColor() {
		return text
	}
	return ansi + text + "\033[0m"
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("randomHex: %w", err)
	}
	return hex.EncodeToString(b), nil
}
