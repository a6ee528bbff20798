package storage

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmulatorSink(t *testing.T) *FirestoreSink {
	t.Helper()
	// 模拟器模式下客户端不校验凭据，也不会立即建立连接
	t.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8681")
	client, err := firestore.NewClient(context.Background(), "test-project")
	require.NoError(t, err)
	sink := NewFirestoreSinkFromClient(client)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func TestFirestoreSink_DocRef(t *testing.T) {
	sink := newEmulatorSink(t)

	ref, err := sink.docRef(ResumeDocumentPath("u1"))
	require.NoError(t, err)
	assert.Equal(t, "resume", ref.ID)
	assert.Equal(t, "ResumeDetails", ref.Parent.ID)
	assert.Equal(t, "u1", ref.Parent.Parent.ID)
	assert.Equal(t, "users", ref.Parent.Parent.Parent.ID)
	assert.True(t, len(ref.Path) > 0)
	assert.Contains(t, ref.Path, "/documents/users/u1/ResumeDetails/resume")
}

func TestFirestoreSink_InvalidPath(t *testing.T) {
	sink := newEmulatorSink(t)

	_, err := sink.docRef(DocumentPath{"users", "u1", "ResumeDetails"})
	assert.ErrorIs(t, err, ErrInvalidPath)

	err = sink.Set(context.Background(), ResumeDocumentPath(""), map[string]interface{}{})
	assert.ErrorIs(t, err, ErrInvalidPath)
}
