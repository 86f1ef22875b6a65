// Package timeouts defines shared timeout constants used across the engine.
// Centralizing these values prevents drift between call sites and makes the
// durations discoverable.
package timeouts

import "time"

// AIText caps a single narrative or structured text generation call.
const AIText = 120 * time.Second

// AIMedia caps a single image or audio synthesis call.
const AIMedia = 180 * time.Second

// AIAttach caps a grounding file upload.
const AIAttach = 30 * time.Second

// Shutdown limits how long the process waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
