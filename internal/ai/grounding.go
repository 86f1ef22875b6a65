package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// BlobPutter persists an audit copy of grounding snapshots.
type BlobPutter interface {
	PutBlob(ctx context.Context, key string, data []byte) error
}

// Grounding attaches world snapshots to the AI client so generations stay
// consistent with established state, and retains a compressed audit copy of
// every snapshot.
type Grounding struct {
	client  Client
	blobs   BlobPutter
	encoder *zstd.Encoder
}

// NewGrounding builds a Grounding helper. blobs may be nil to skip audit
// copies.
func NewGrounding(client Client, blobs BlobPutter) (*Grounding, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	return &Grounding{client: client, blobs: blobs, encoder: encoder}, nil
}

// Attach serializes the snapshot to JSON, uploads it as a grounding file,
// and stores a zstd-compressed copy under the given key. The audit copy is
// written even when the upload fails, so failed turns remain inspectable.
func (g *Grounding) Attach(ctx context.Context, key string, snapshot any) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal grounding snapshot: %w", err)
	}

	if g.blobs != nil {
		compressed := g.encoder.EncodeAll(data, nil)
		if err := g.blobs.PutBlob(ctx, key, compressed); err != nil {
			return fmt.Errorf("store grounding snapshot %s: %w", key, err)
		}
	}

	if err := g.client.AttachFile(ctx, data, key+".json"); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAttachFailed, key, err)
	}
	return nil
}

// Refresh clears previously attached files and attaches a new snapshot.
func (g *Grounding) Refresh(ctx context.Context, key string, snapshot any) error {
	if err := g.client.ClearFiles(ctx); err != nil {
		return fmt.Errorf("clear grounding files: %w", err)
	}
	return g.Attach(ctx, key, snapshot)
}

// Decompress restores a stored snapshot to its JSON form.
func Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	defer decoder.Close()
	restored, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return restored, nil
}
