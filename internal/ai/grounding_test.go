package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeAttachClient struct {
	Client
	attached  [][]byte
	filenames []string
	cleared   int
	fail      bool
}

func (c *fakeAttachClient) AttachFile(_ context.Context, data []byte, filename string) error {
	if c.fail {
		return errors.New("upload rejected")
	}
	c.attached = append(c.attached, data)
	c.filenames = append(c.filenames, filename)
	return nil
}

func (c *fakeAttachClient) ClearFiles(context.Context) error {
	c.cleared++
	return nil
}

type memoryBlobs struct {
	blobs map[string][]byte
}

func (m *memoryBlobs) PutBlob(_ context.Context, key string, data []byte) error {
	if m.blobs == nil {
		m.blobs = map[string][]byte{}
	}
	m.blobs[key] = data
	return nil
}

func TestGroundingAttachStoresCompressedCopy(t *testing.T) {
	client := &fakeAttachClient{}
	blobs := &memoryBlobs{}
	grounding, err := NewGrounding(client, blobs)
	if err != nil {
		t.Fatalf("new grounding: %v", err)
	}

	snapshot := map[string]string{"world": "w1", "party": "p1"}
	if err := grounding.Attach(context.Background(), "turn-7", snapshot); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if len(client.attached) != 1 {
		t.Fatalf("expected one attachment, got %d", len(client.attached))
	}
	if client.filenames[0] != "turn-7.json" {
		t.Fatalf("unexpected filename %q", client.filenames[0])
	}

	compressed, ok := blobs.blobs["turn-7"]
	if !ok {
		t.Fatal("expected compressed audit copy")
	}
	restored, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(restored, &decoded); err != nil {
		t.Fatalf("unmarshal restored snapshot: %v", err)
	}
	if decoded["world"] != "w1" {
		t.Fatalf("snapshot corrupted: %v", decoded)
	}
}

func TestGroundingAttachFailureKeepsAuditCopy(t *testing.T) {
	client := &fakeAttachClient{fail: true}
	blobs := &memoryBlobs{}
	grounding, err := NewGrounding(client, blobs)
	if err != nil {
		t.Fatalf("new grounding: %v", err)
	}

	err = grounding.Attach(context.Background(), "turn-8", map[string]string{"world": "w1"})
	if !errors.Is(err, ErrAttachFailed) {
		t.Fatalf("expected ErrAttachFailed, got %v", err)
	}
	if _, ok := blobs.blobs["turn-8"]; !ok {
		t.Fatal("audit copy must be written before the upload attempt")
	}
}

func TestGroundingRefreshClearsFirst(t *testing.T) {
	client := &fakeAttachClient{}
	grounding, err := NewGrounding(client, nil)
	if err != nil {
		t.Fatalf("new grounding: %v", err)
	}

	if err := grounding.Refresh(context.Background(), "turn-9", map[string]string{}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if client.cleared != 1 {
		t.Fatalf("expected one clear, got %d", client.cleared)
	}
	if len(client.attached) != 1 {
		t.Fatalf("expected one attach, got %d", len(client.attached))
	}
}
