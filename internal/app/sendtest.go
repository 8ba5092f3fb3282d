package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goldwatch/internal/alerting"
)

// SendTest pushes a test message through the configured channel to verify
// credentials and connectivity.
func (a *App) SendTest(ctx context.Context) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("notify is disabled; nothing to test")
	}

	msg := alerting.Message{
		Text:      fmt.Sprintf("<b>goldwatch test</b>\n%s", time.Now().Format("2006-01-02 15:04:05")),
		ParseMode: "HTML",
	}
	if err := notifier.Notify(ctx, msg); err != nil {
		return err
	}

	a.Logger.Info().Msg("test notification delivered")
	return nil
}
