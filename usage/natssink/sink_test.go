package natssink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	msgs     []*nats.Msg
	pubErr   error
	flushErr error
	flushes  int
}

func (c *fakeConn) PublishMsg(m *nats.Msg) error {
	if c.pubErr != nil {
		return c.pubErr
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *fakeConn) FlushWithContext(context.Context) error {
	c.flushes++
	return c.flushErr
}

func TestRecordUsage(t *testing.T) {
	conn := &fakeConn{}
	s := New(conn)

	rec := usage.Record{ID: "r1", UserID: "u1", Provider: ai.ProviderArcee, TokensUsed: 42, CostCents: 2}
	require.NoError(t, s.RecordUsage(context.Background(), rec))

	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	assert.Equal(t, "abapforge.usage.arcee", msg.Subject)
	assert.Equal(t, "r1", msg.Header.Get(nats.MsgIdHdr))

	var got usage.Record
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 42, got.TokensUsed)
	assert.Equal(t, 0, conn.flushes)
}

func TestRecordUsage_Options(t *testing.T) {
	conn := &fakeConn{}
	s := New(conn, WithSubject("billing"), WithFlush(true))

	require.NoError(t, s.RecordUsage(context.Background(), usage.Record{ID: "r1"}))
	assert.Equal(t, "billing.unknown", conn.msgs[0].Subject)
	assert.Equal(t, 1, conn.flushes)
}

func TestRecordUsage_Errors(t *testing.T) {
	t.Run("publish", func(t *testing.T) {
		err := New(&fakeConn{pubErr: nats.ErrConnectionClosed}).RecordUsage(context.Background(), usage.Record{})
		assert.ErrorIs(t, err, nats.ErrConnectionClosed)
	})

	t.Run("flush", func(t *testing.T) {
		boom := errors.New("flush timeout")
		err := New(&fakeConn{flushErr: boom}, WithFlush(true)).RecordUsage(context.Background(), usage.Record{})
		assert.ErrorIs(t, err, boom)
	})
}
