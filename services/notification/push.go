package notification

import (
	"context"
	"fmt"

	"bookme/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Sender is the part of *messaging.Client used for push delivery.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NewFirebaseSender initializes a Firebase app from a service account file and
// returns its messaging client.
func NewFirebaseSender(ctx context.Context, credentialsPath string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase: initialize app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: messaging client: %w", err)
	}
	return client, nil
}

// PushNotifier sends the reminder to the customer's device.
type PushNotifier struct {
	sender Sender
	logger *zap.Logger
}

func NewPushNotifier(sender Sender, logger *zap.Logger) *PushNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushNotifier{sender: sender, logger: logger}
}

func (p *PushNotifier) Send(ctx context.Context, contact models.Contact, summary models.ReminderSummary) error {
	if contact.FCMToken == "" {
		return ErrNoRecipient
	}

	id, err := p.sender.Send(ctx, pushMessage(contact.FCMToken, summary))
	if err != nil {
		return fmt.Errorf("%w: fcm: %v", ErrUnavailable, err)
	}
	p.logger.Debug("reminder push sent", zap.String("bookingId", summary.BookingID), zap.String("messageId", id))
	return nil
}

func pushMessage(token string, summary models.ReminderSummary) *messaging.Message {
	startsAt := summary.StartsAt.Format("15:04")
	body := fmt.Sprintf("%s цагт %s", startsAt, summary.CompanyName)
	if summary.TravelTime != "" {
		body += fmt.Sprintf(" (очих хугацаа %s)", summary.TravelTime)
	}

	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: "Та 1 цагийн дараа цаг захиалгатай байна",
			Body:  body,
		},
		Data: map[string]string{
			"role":      "user",
			"type":      "booking_reminder",
			"bookingId": summary.BookingID,
			"startsAt":  summary.StartsAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
