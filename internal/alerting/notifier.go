// Package alerting delivers change notifications to a messaging channel.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Message is one outbound notification: text with a markup mode, plus an
// optional image attachment sent alongside it.
type Message struct {
	Text      string
	ParseMode string
	Photo     []byte
	PhotoName string
}

// Notifier delivers a message. One call is one delivery attempt.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram channel.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "telegram_notifier").Logger(),
	}
}

// Notify sends the text via sendMessage, then the attachment (if any) via
// sendPhoto. Either failing fails the whole attempt.
func (n *TelegramNotifier) Notify(ctx context.Context, msg Message) error {
	if err := n.sendMessage(ctx, msg); err != nil {
		return err
	}
	if len(msg.Photo) > 0 {
		if err := n.sendPhoto(ctx, msg); err != nil {
			return err
		}
	}

	n.logger.Info().Bool("with_photo", len(msg.Photo) > 0).Msg("notification delivered")
	return nil
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, msg Message) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    msg.Text,
	}
	if msg.ParseMode != "" {
		payload["parse_mode"] = msg.ParseMode
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return n.do(req)
}

func (n *TelegramNotifier) sendPhoto(ctx context.Context, msg Message) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", n.chatID); err != nil {
		return fmt.Errorf("write telegram form: %w", err)
	}

	name := msg.PhotoName
	if name == "" {
		name = "snapshot.png"
	}
	part, err := writer.CreateFormFile("photo", name)
	if err != nil {
		return fmt.Errorf("write telegram form: %w", err)
	}
	if _, err := part.Write(msg.Photo); err != nil {
		return fmt.Errorf("write telegram form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("write telegram form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.methodURL("sendPhoto"), &buf)
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return n.do(req)
}

func (n *TelegramNotifier) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", n.baseURL, n.botToken, method)
}

func (n *TelegramNotifier) do(req *http.Request) error {
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram rejected message: %s", result.Description)
		}
		return fmt.Errorf("telegram returned ok=false")
	}
	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)
