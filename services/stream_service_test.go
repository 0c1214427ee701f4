package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventmatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreams serves one shard whose records drain once; after that the shard
// reports closed (nil next iterator) so tailShard returns.
type fakeStreams struct {
	mu      sync.Mutex
	records []streamtypes.Record
	served  bool
}

func (f *fakeStreams) DescribeStream(ctx context.Context, params *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error) {
	return &dynamodbstreams.DescribeStreamOutput{
		StreamDescription: &streamtypes.StreamDescription{
			Shards: []streamtypes.Shard{{ShardId: aws.String("shard-0001")}},
		},
	}, nil
}

func (f *fakeStreams) GetShardIterator(ctx context.Context, params *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error) {
	return &dynamodbstreams.GetShardIteratorOutput{ShardIterator: aws.String("iter-0")}, nil
}

func (f *fakeStreams) GetRecords(ctx context.Context, params *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.served {
		return &dynamodbstreams.GetRecordsOutput{}, nil
	}
	f.served = true
	return &dynamodbstreams.GetRecordsOutput{Records: f.records, NextShardIterator: nil}, nil
}

func interestRecord(userID, eventID, status string) streamtypes.Record {
	return streamtypes.Record{
		Dynamodb: &streamtypes.StreamRecord{
			NewImage: map[string]streamtypes.AttributeValue{
				"userId":   &streamtypes.AttributeValueMemberS{Value: userID},
				"eventKey": &streamtypes.AttributeValueMemberS{Value: utils.EventKey(eventID)},
				"eventId":  &streamtypes.AttributeValueMemberS{Value: eventID},
				"status":   &streamtypes.AttributeValueMemberS{Value: status},
			},
		},
	}
}

func TestInterestStreamDispatchesToRegistryAndPush(t *testing.T) {
	registry := NewWatchRegistry()

	changes := make(chan bool, 4)
	cancel := registry.Watch("alice", utils.EventKey("SalsaNight"), func(active bool) {
		changes <- active
	})
	defer cancel()

	type pushed struct {
		userID, eventID string
		active          bool
	}
	pushes := make(chan pushed, 4)

	svc := &InterestStreamService{
		Streams: &fakeStreams{records: []streamtypes.Record{
			interestRecord("alice", "SalsaNight", "active"),
			interestRecord("alice", "SalsaNight", "inactive"),
			interestRecord("bob", "SalsaNight", "active"), // no watcher, push only
		}},
		StreamArn:    "arn:aws:dynamodb:local:000000000000:table/UserInterests/stream/test",
		Registry:     registry,
		Push:         func(userID, eventID string, active bool) { pushes <- pushed{userID, eventID, active} },
		PollInterval: time.Millisecond,
	}

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	expectChange := func(want bool) {
		select {
		case got := <-changes:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for watcher change %v", want)
		}
	}
	expectChange(true)
	expectChange(false)

	var seen []pushed
	for len(seen) < 3 {
		select {
		case p := <-pushes:
			seen = append(seen, p)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for pushes, got %d", len(seen))
		}
	}
	assert.Equal(t, pushed{"alice", "SalsaNight", true}, seen[0])
	assert.Equal(t, pushed{"alice", "SalsaNight", false}, seen[1])
	assert.Equal(t, pushed{"bob", "SalsaNight", true}, seen[2])

	stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestInterestStreamIgnoresIncompleteRecords(t *testing.T) {
	registry := NewWatchRegistry()
	fired := false
	cancel := registry.Watch("alice", utils.EventKey("SalsaNight"), func(bool) { fired = true })
	defer cancel()

	svc := &InterestStreamService{Registry: registry}
	svc.dispatch(streamtypes.Record{}) // no stream record at all
	svc.dispatch(streamtypes.Record{Dynamodb: &streamtypes.StreamRecord{}})
	svc.dispatch(streamtypes.Record{Dynamodb: &streamtypes.StreamRecord{
		NewImage: map[string]streamtypes.AttributeValue{
			"status": &streamtypes.AttributeValueMemberS{Value: "active"},
		},
	}})

	require.False(t, fired)
}
