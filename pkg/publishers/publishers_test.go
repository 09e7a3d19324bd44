package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
  - id: topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:ap-south-1:123:board
      region: ap-south-1
  - id: pubsub
    type: gcp_pubsub
    gcp_pubsub:
      project_id: demo
      topic: board-events
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 3 || enabled[0].ID != "http2" {
		t.Fatalf("expected http2, topic and pubsub enabled, got %#v", enabled)
	}
	if cfg, ok := reg.ByID("http2"); !ok || cfg.HTTP.Method != "POST" || cfg.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("http defaults not applied: %#v", cfg.HTTP)
	}
}

func TestValidatePublisherConfigRejectsInvalid(t *testing.T) {
	cases := map[string]PublisherConfig{
		"missing http":    {ID: "h1", Type: TypeHTTP},
		"missing sns arn": {ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		"missing project": {ID: "g1", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{Topic: "t"}},
		"unknown type":    {ID: "x", Type: "kafka"},
		"half credentials": {ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{
			QueueURL:    "https://sqs/queue",
			Region:      "us-east-1",
			Credentials: AWSCredentials{AccessKeyID: "AKIA"},
		}},
	}
	for name, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
