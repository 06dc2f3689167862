package sqs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/archon-research/answer-relay/internal/testutil"
)

type mockSQSClient struct {
	receiveFn func(ctx context.Context, params *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	deleteFn  func(ctx context.Context, params *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)

	receiveCalls []*sqs.ReceiveMessageInput
	deleteCalls  []*sqs.DeleteMessageInput
}

func (m *mockSQSClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.receiveCalls = append(m.receiveCalls, params)
	if m.receiveFn != nil {
		return m.receiveFn(ctx, params)
	}
	return &sqs.ReceiveMessageOutput{}, nil
}

func (m *mockSQSClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.deleteCalls = append(m.deleteCalls, params)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, params)
	}
	return &sqs.DeleteMessageOutput{}, nil
}

const testQueueURL = "https://sqs.us-east-1.amazonaws.com/123456789/relay-requests"

func TestNewConsumer_Validation(t *testing.T) {
	if _, err := newConsumer(nil, Config{QueueURL: testQueueURL}, nil); err == nil {
		t.Error("expected error for nil client")
	}
	if _, err := newConsumer(&mockSQSClient{}, Config{}, nil); err == nil {
		t.Error("expected error for empty queue URL")
	}

	c, err := newConsumer(&mockSQSClient{}, Config{QueueURL: testQueueURL}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.config.WaitTimeSeconds != 20 {
		t.Errorf("expected WaitTimeSeconds=20, got %d", c.config.WaitTimeSeconds)
	}
}

func TestReceiveMessages(t *testing.T) {
	client := &mockSQSClient{
		receiveFn: func(ctx context.Context, params *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
			return &sqs.ReceiveMessageOutput{
				Messages: []types.Message{
					{
						MessageId:     aws.String("m1"),
						ReceiptHandle: aws.String("r1"),
						Body:          aws.String(`{"variant":"single_feed"}`),
						Attributes:    map[string]string{"ApproximateReceiveCount": "3"},
					},
					{MessageId: aws.String("m2"), ReceiptHandle: nil, Body: aws.String("{}")},
					{MessageId: aws.String("m3"), ReceiptHandle: aws.String("r3"), Body: aws.String("{}")},
				},
			}, nil
		},
	}
	c, _ := newConsumer(client, Config{QueueURL: testQueueURL, VisibilityTimeout: 30}, testutil.DiscardLogger())

	msgs, err := c.ReceiveMessages(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 complete messages, got %d", len(msgs))
	}
	if msgs[0].ReceiveCount != 3 {
		t.Errorf("expected receive count 3, got %d", msgs[0].ReceiveCount)
	}
	if msgs[1].ReceiveCount != 0 {
		t.Errorf("expected receive count 0 without attribute, got %d", msgs[1].ReceiveCount)
	}

	in := client.receiveCalls[0]
	if in.MaxNumberOfMessages != 10 {
		t.Errorf("expected batch capped at 10, got %d", in.MaxNumberOfMessages)
	}
	if in.VisibilityTimeout != 30 {
		t.Errorf("expected visibility timeout 30, got %d", in.VisibilityTimeout)
	}
	if aws.ToString(in.QueueUrl) != testQueueURL {
		t.Errorf("expected queue %s, got %s", testQueueURL, aws.ToString(in.QueueUrl))
	}
}

func TestReceiveMessages_Error(t *testing.T) {
	client := &mockSQSClient{
		receiveFn: func(ctx context.Context, params *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
			return nil, errors.New("access denied")
		},
	}
	c, _ := newConsumer(client, Config{QueueURL: testQueueURL}, testutil.DiscardLogger())

	if _, err := c.ReceiveMessages(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
	if client.receiveCalls[0].MaxNumberOfMessages != 1 {
		t.Errorf("expected batch raised to 1, got %d", client.receiveCalls[0].MaxNumberOfMessages)
	}
}

func TestDeleteMessage(t *testing.T) {
	client := &mockSQSClient{}
	c, _ := newConsumer(client, Config{QueueURL: testQueueURL}, testutil.DiscardLogger())

	if err := c.DeleteMessage(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(client.deleteCalls[0].ReceiptHandle); got != "r1" {
		t.Errorf("expected receipt r1, got %s", got)
	}

	client.deleteFn = func(ctx context.Context, params *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
		return nil, errors.New("gone")
	}
	if err := c.DeleteMessage(context.Background(), "r2"); err == nil {
		t.Error("expected error")
	}
}
