package persistsummary

import (
	"context"
	"strconv"

	"grokipedia-x/internal/common/aws"
)

const notificationSubject = "Grokipedia summary saved"

// Notifier announces a persisted summary and returns the message id.
type Notifier interface {
	Notify(ctx context.Context, n Notification) (string, error)
}

type SNSNotifier struct {
	client   *aws.SNSClient
	topicARN string
}

func NewSNSNotifier(client *aws.SNSClient, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (n *SNSNotifier) Notify(ctx context.Context, msg Notification) (string, error) {
	return n.client.PublishJSON(ctx, n.topicARN, notificationSubject, msg, map[string]string{
		"model":   msg.Model,
		"entries": strconv.Itoa(msg.Entries),
		"stored":  strconv.FormatBool(msg.Stored),
	})
}
