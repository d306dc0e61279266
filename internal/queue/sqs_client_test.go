package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	bodies []string
	urls   []string
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.urls = append(f.urls, aws.ToString(in.QueueUrl))
	f.bodies = append(f.bodies, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSClientSendEncodesMessage(t *testing.T) {
	fake := &fakeSender{}
	client := &SQSClient{client: fake, queueURL: "https://sqs.local/orphans"}

	if err := client.Send(context.Background(), Message{ResumeID: "r1", Path: "p", Version: MessageVersion}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fake.bodies) != 1 || fake.urls[0] != "https://sqs.local/orphans" {
		t.Fatalf("unexpected sends: %+v", fake)
	}
	got, err := DecodeMessage([]byte(fake.bodies[0]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ResumeID != "r1" || got.Path != "p" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestSQSClientSendWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	client := &SQSClient{client: &fakeSender{err: boom}, queueURL: "q"}
	if err := client.Send(context.Background(), Message{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
