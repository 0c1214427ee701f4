package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// WatchRegistry fans interest-status changes out to long-lived watchers. A
// watcher is keyed by (userId, eventKey); cancellation is the caller's
// responsibility via the returned func. Writers in this process notify the
// registry directly; the stream tailer below covers writes from other
// processes.
type WatchRegistry struct {
	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]func(bool)
}

func NewWatchRegistry() *WatchRegistry {
	return &WatchRegistry{watchers: make(map[string]map[int]func(bool))}
}

func watchKey(userID, eventKey string) string {
	return userID + "/" + eventKey
}

// Watch registers onChange for the given (user, eventKey) pair and returns a
// cancel func. onChange receives the new active state on every status change.
func (r *WatchRegistry) Watch(userID, eventKey string, onChange func(bool)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := watchKey(userID, eventKey)
	r.nextID++
	id := r.nextID
	if r.watchers[key] == nil {
		r.watchers[key] = make(map[int]func(bool))
	}
	r.watchers[key][id] = onChange
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.watchers[key], id)
		if len(r.watchers[key]) == 0 {
			delete(r.watchers, key)
		}
	}
}

// Notify invokes every watcher registered for the pair.
func (r *WatchRegistry) Notify(userID, eventKey string, active bool) {
	r.mu.Lock()
	callbacks := make([]func(bool), 0, len(r.watchers[watchKey(userID, eventKey)]))
	for _, cb := range r.watchers[watchKey(userID, eventKey)] {
		callbacks = append(callbacks, cb)
	}
	r.mu.Unlock()
	for _, cb := range callbacks {
		cb(active)
	}
}

// StreamsAPI is the slice of the DynamoDB Streams client the tailer uses.
type StreamsAPI interface {
	DescribeStream(ctx context.Context, params *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

// InterestStreamService tails the UserInterests table stream and pushes each
// status change into the watch registry and, when wired, out to connected
// sockets. This is the store's listen primitive; there is no poll-and-diff
// loop over the table itself.
type InterestStreamService struct {
	Streams   StreamsAPI
	StreamArn string
	Registry  *WatchRegistry

	// Push, when set, forwards the change to the user's socket room.
	Push func(userID, eventID string, active bool)

	// PollInterval paces GetRecords on an open shard; defaults to 2s.
	PollInterval time.Duration
}

// Run tails every shard of the stream until ctx is cancelled. Closed shards
// finish; new shards are picked up on the next describe pass.
func (s *InterestStreamService) Run(ctx context.Context) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	active := make(map[string]bool)
	var wg sync.WaitGroup
	for {
		out, err := s.Streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{StreamArn: &s.StreamArn})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("❌ Failed to describe interest stream: %v", err)
		} else {
			for _, shard := range out.StreamDescription.Shards {
				shardID := *shard.ShardId
				if active[shardID] {
					continue
				}
				active[shardID] = true
				wg.Add(1)
				go func(shardID string) {
					defer wg.Done()
					s.tailShard(ctx, shardID, interval)
				}(shardID)
			}
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-time.After(time.Minute):
		}
	}
	wg.Wait()
}

func (s *InterestStreamService) tailShard(ctx context.Context, shardID string, interval time.Duration) {
	iterOut, err := s.Streams.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         &s.StreamArn,
		ShardId:           &shardID,
		ShardIteratorType: streamtypes.ShardIteratorTypeLatest,
	})
	if err != nil {
		log.Printf("❌ Failed to get iterator for shard %s: %v", shardID, err)
		return
	}

	iterator := iterOut.ShardIterator
	for iterator != nil {
		if ctx.Err() != nil {
			return
		}
		recOut, err := s.Streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{ShardIterator: iterator})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("❌ Failed to read records on shard %s: %v", shardID, err)
			return
		}
		for _, record := range recOut.Records {
			s.dispatch(record)
		}
		iterator = recOut.NextShardIterator
		if len(recOut.Records) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	}
}

func (s *InterestStreamService) dispatch(record streamtypes.Record) {
	if record.Dynamodb == nil || record.Dynamodb.NewImage == nil {
		return
	}
	image := record.Dynamodb.NewImage
	userID := streamString(image, "userId")
	eventKey := streamString(image, "eventKey")
	eventID := streamString(image, "eventId")
	status := streamString(image, "status")
	if userID == "" || eventKey == "" {
		return
	}
	isActive := status == "active"
	s.Registry.Notify(userID, eventKey, isActive)
	if s.Push != nil {
		s.Push(userID, eventID, isActive)
	}
}

func streamString(image map[string]streamtypes.AttributeValue, field string) string {
	if attr, ok := image[field]; ok {
		if v, ok := attr.(*streamtypes.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// NewStreamsClient initializes the DynamoDB Streams client from the same AWS
// config as the main client.
func NewStreamsClient() *dynamodbstreams.Client {
	cfg, err := loadAWSConfig()
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	return dynamodbstreams.NewFromConfig(cfg)
}
