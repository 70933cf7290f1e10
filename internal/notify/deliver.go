package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

// LogDeliverer writes due notifications to the log.
type LogDeliverer struct {
	log zerolog.Logger
}

func NewLogDeliverer(logger zerolog.Logger) *LogDeliverer {
	return &LogDeliverer{log: logger}
}

func (l *LogDeliverer) Deliver(_ context.Context, inst reminder.Instance) error {
	l.log.Info().
		Str("occurrence", inst.ID).
		Str("reminder_id", inst.ReminderID).
		Str("channel", inst.Channel).
		Time("trigger_at", inst.TriggerAt).
		Str("body", inst.Body).
		Msg(inst.Title)
	return nil
}

// ---------------------------------------------------------------------------
// MQTT
// ---------------------------------------------------------------------------

const publishTimeout = 10 * time.Second

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTDeliverer publishes notifications as JSON to
// ghari/<channel>/notifications.
type MQTTDeliverer struct {
	client publisher
	qos    byte
}

// ConnectMQTT opens a client connection to broker.
func ConnectMQTT(broker, clientID string, logger zerolog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info().Str("broker", broker).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "failed to connect to MQTT broker")
	}
	return client, nil
}

func NewMQTTDeliverer(client publisher) *MQTTDeliverer {
	return &MQTTDeliverer{client: client, qos: 1}
}

// Topic returns the topic notifications for channel are published on.
func Topic(channel string) string {
	return fmt.Sprintf("ghari/%s/notifications", channel)
}

func (m *MQTTDeliverer) Deliver(_ context.Context, inst reminder.Instance) error {
	payload, err := json.Marshal(inst)
	if err != nil {
		return errors.Wrap(err, "encode mqtt payload")
	}

	token := m.client.Publish(Topic(inst.Channel), m.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("mqtt publish %s timed out", inst.ID)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "mqtt publish %s", inst.ID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Firebase Cloud Messaging
// ---------------------------------------------------------------------------

type fcmSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMDeliverer sends notifications to the FCM topic named by the channel.
type FCMDeliverer struct {
	client fcmSender
}

// NewFCMClient initializes a messaging client from a service account file.
func NewFCMClient(ctx context.Context, credentialsPath string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}
	return client, nil
}

func NewFCMDeliverer(client fcmSender) *FCMDeliverer {
	return &FCMDeliverer{client: client}
}

func (f *FCMDeliverer) Deliver(ctx context.Context, inst reminder.Instance) error {
	msg := &messaging.Message{
		Topic: inst.Channel,
		Notification: &messaging.Notification{
			Title: inst.Title,
			Body:  inst.Body,
		},
		Data: map[string]string{
			"occurrenceId": inst.ID,
			"reminderId":   inst.ReminderID,
			"triggerAt":    inst.TriggerAt.Format(time.RFC3339),
			"repeat":       string(inst.Repeat),
		},
	}

	if _, err := f.client.Send(ctx, msg); err != nil {
		return errors.Wrapf(err, "fcm send %s", inst.ID)
	}
	return nil
}
