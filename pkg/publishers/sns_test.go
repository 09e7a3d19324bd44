package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSPublisherSendsBoardAttribute(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      discardLogger{},
	}

	if err := pub.Publish(context.Background(), Event{BoardID: "board-1", Title: "Dark mode"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["board_id"]
	if !ok || aws.ToString(attr.StringValue) != "board-1" {
		t.Fatalf("board_id attribute missing or wrong: %#v", attr)
	}
	if msg := aws.ToString(client.input.Message); !strings.Contains(msg, `"title":"Dark mode"`) {
		t.Fatalf("Message missing title: %s", msg)
	}
}

func TestSNSPublisherSendError(t *testing.T) {
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   &fakeSNSClient{err: errors.New("boom")},
		log:      discardLogger{},
	}

	if err := pub.Publish(context.Background(), Event{BoardID: "board-1"}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
