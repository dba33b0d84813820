// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client, which speaks to both AWS S3 and self-hosted
// MinIO, behind a small byte-oriented Client interface. The request bucket
// (batch source) and the record bucket (widget records) both go through it.
//
// # Errors
//
// A missing object is reported as ErrNotFound so callers can tell "already
// consumed" apart from transport failures.
//
// # Usage
//
//	client, err := storage.NewClient(cfg)
//	keys, err := client.List(ctx, "widget-requests")
//	body, err := client.Get(ctx, "widget-requests", keys[0])
package storage
