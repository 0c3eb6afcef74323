// Package telegram provides the Telegram bot for admin notifications and
// status queries.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
)

// Bot wraps the Telegram bot API.
type Bot struct {
	api         *tgbotapi.BotAPI
	adminChatID int64
	database    *db.DB
}

// New creates a Bot. Returns nil if token is empty (Telegram disabled).
func New(token string, adminChatID int64, database *db.DB) (*Bot, error) {
	if token == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram.New: %w", err)
	}
	return &Bot{api: api, adminChatID: adminChatID, database: database}, nil
}

// Send sends a plain text message to the admin chat.
func (b *Bot) Send(msg string) error {
	if b == nil {
		return nil
	}
	m := tgbotapi.NewMessage(b.adminChatID, msg)
	m.ParseMode = "Markdown"
	if _, err := b.api.Send(m); err != nil {
		return fmt.Errorf("telegram.Send: %w", err)
	}
	return nil
}

// Start begins polling for updates. Must be called in a goroutine.
// Only processes messages from adminChatID.
func (b *Bot) Start(ctx context.Context) {
	if b == nil {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Chat.ID != b.adminChatID {
				continue
			}
			b.handleCommand(ctx, update.Message.Text)
		}
	}
}

// handleCommand answers the small admin command set.
func (b *Bot) handleCommand(ctx context.Context, text string) {
	switch {
	case strings.HasPrefix(text, "/status"):
		b.reply(b.statusText(ctx))
	case strings.HasPrefix(text, "/datasets"):
		b.reply(b.datasetsText(ctx))
	case strings.HasPrefix(text, "/help"), strings.HasPrefix(text, "/start"):
		b.reply("Commands:\n/status — ingest run summary\n/datasets — catalog freshness")
	}
}

func (b *Bot) statusText(ctx context.Context) string {
	var running, failed, succeeded int
	_ = b.database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingest_runs WHERE status='running'`).Scan(&running)
	_ = b.database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingest_runs WHERE status='failed'`).Scan(&failed)
	_ = b.database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ingest_runs WHERE status='ok'`).Scan(&succeeded)
	return fmt.Sprintf("*Ingest runs*\nrunning: %d\nok: %d\nfailed: %d",
		running, succeeded, failed)
}

func (b *Bot) datasetsText(ctx context.Context) string {
	rows, err := b.database.QueryContext(ctx,
		`SELECT id, COALESCE(refreshed_at, '') FROM datasets ORDER BY id`)
	if err != nil {
		return "catalog unavailable: " + err.Error()
	}
	defer rows.Close()

	var sb strings.Builder
	sb.WriteString("*Datasets*\n")
	for rows.Next() {
		var id, refreshed string
		if err := rows.Scan(&id, &refreshed); err != nil {
			continue
		}
		if refreshed == "" {
			refreshed = "never refreshed"
		}
		fmt.Fprintf(&sb, "%s — %s\n", id, refreshed)
	}
	return sb.String()
}

func (b *Bot) reply(text string) {
	msg := tgbotapi.NewMessage(b.adminChatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("telegram.reply: %v", err)
	}
}
