package reporting

import (
	"context"
	"fmt"
	"strings"

	"nabot/internal/domain/model"
	"nabot/internal/domain/ports"
)

// maxFields is the number of embed fields Discord accepts per message.
const maxFields = 25

// NotificationReporter turns matches into a notification for a ports.Notifier.
type NotificationReporter struct {
	notifier ports.Notifier
}

var _ ports.Reporter = (*NotificationReporter)(nil)

// NewNotificationReporter wraps a notifier.
func NewNotificationReporter(notifier ports.Notifier) *NotificationReporter {
	return &NotificationReporter{notifier: notifier}
}

// Report sends one notification per subject; nothing is sent without matches.
func (n *NotificationReporter) Report(ctx context.Context, subject string, matches []model.Match) error {
	if len(matches) == 0 {
		return nil
	}
	return n.notifier.Send(ctx, BuildNotification(subject, matches))
}

// BuildNotification lists the matches, keeping the first maxFields of them as fields.
func BuildNotification(subject string, matches []model.Match) model.Notification {
	shown := matches
	if len(shown) > maxFields {
		shown = shown[:maxFields]
	}

	fields := make([]model.NotificationField, 0, len(shown))
	for _, m := range shown {
		name := collapse(m.Entry.Title)
		if name == "" {
			name = m.Entry.ArxivID
		}
		value := m.Entry.Link
		if authors := collapse(m.Entry.Authors); authors != "" {
			value = authors + "\n" + value
		}
		fields = append(fields, model.NotificationField{Name: name, Value: value})
	}

	description := fmt.Sprintf("%d new %s paper(s) match the watchlist.", len(matches), subject)
	if hidden := len(matches) - len(shown); hidden > 0 {
		description += fmt.Sprintf(" %d more not shown.", hidden)
	}

	return model.Notification{
		Title:       "arXiv " + subject,
		URL:         "https://arxiv.org/list/" + subject + "/recent",
		Description: description,
		Fields:      fields,
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
