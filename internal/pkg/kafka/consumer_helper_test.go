package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	ctx context.Context

	mu      sync.Mutex
	marked  []int64
	commits int
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "member" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}
func (s *fakeSession) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
}

type fakeClaim struct {
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "t" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func testBatch() batchOptions {
	return batchOptions{size: 3, timeout: 20 * time.Millisecond, minBackoff: time.Millisecond, maxBackoff: 4 * time.Millisecond}
}

func TestBatch_Commits_Last_Offset_After_Retry(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 3)}
	for i := int64(1); i <= 3; i++ {
		claim.msgs <- &sarama.ConsumerMessage{Offset: i}
	}
	close(claim.msgs)

	var failures atomic.Int32
	var done sync.Map
	logic := func(_ context.Context, m *sarama.ConsumerMessage) error {
		// offset 2 fails twice before succeeding
		if m.Offset == 2 && failures.Add(1) <= 2 {
			return errors.New("transient")
		}
		done.Store(m.Offset, true)
		return nil
	}

	req.NoError(testBatch().consume(session, claim, logic))

	req.EqualValues(3, failures.Load())
	for i := int64(1); i <= 3; i++ {
		_, ok := done.Load(i)
		req.True(ok)
	}
	req.Equal([]int64{3}, session.marked)
	req.Equal(1, session.commits)
}

func TestBatch_Flushes_On_Timeout(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session := &fakeSession{ctx: ctx}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 1)}
	claim.msgs <- &sarama.ConsumerMessage{Offset: 7}

	var handled atomic.Int32
	go func() {
		_ = testBatch().consume(session, claim, func(context.Context, *sarama.ConsumerMessage) error {
			handled.Add(1)
			return nil
		})
	}()

	// A partial batch is processed once the timer fires
	req.Eventually(func() bool { return handled.Load() == 1 }, time.Second, 5*time.Millisecond)
	req.Eventually(func() bool {
		session.mu.Lock()
		defer session.mu.Unlock()
		return session.commits == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBatch_No_Commit_When_Session_Ends(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{ctx: ctx}

	logic := func(context.Context, *sarama.ConsumerMessage) error {
		cancel()
		return errors.New("store down")
	}
	testBatch().process(session, []*sarama.ConsumerMessage{{Offset: 1}}, logic)

	req.Empty(session.marked)
	req.Zero(session.commits)
}

func TestToCanalMessage(t *testing.T) {
	req := require.New(t)

	msg, err := ToCanalMessage(&sarama.ConsumerMessage{Value: []byte(`{"table":"user_follows","type":"INSERT","data":[{"follower_id":"1"}]}`)}, "user_follows")
	req.NoError(err)
	req.Equal(INSERT, msg.Type)

	_, err = ToCanalMessage(&sarama.ConsumerMessage{Value: []byte(`{"table":"users","data":[{}]}`)}, "user_follows")
	req.ErrorIs(err, ErrTableMismatch)

	_, err = ToCanalMessage(&sarama.ConsumerMessage{Value: []byte(`{"table":"user_follows","data":[]}`)}, "user_follows")
	req.ErrorIs(err, ErrEmptyData)

	_, err = ToCanalMessage(&sarama.ConsumerMessage{Value: []byte(`{`)}, "user_follows")
	req.Error(err)
}
