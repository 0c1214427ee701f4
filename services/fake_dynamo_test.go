package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"eventmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory DynamoAPI. It understands the expression shapes
// the services actually issue (equality key conditions, SET with
// if_not_exists, ADD on string sets, attribute_exists/attribute_not_exists
// and status-equality conditions) and applies transactions atomically under
// one lock, which is what lets the tests drive real concurrent goroutines at
// it.
type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	// getFailures injects a read error per "table|key" to exercise
	// skip-on-failure paths.
	getFailures map[string]error
}

var fakeKeySchemas = map[string][]string{
	models.UserInterestsTable:  {"userId", "eventKey"},
	models.EventInterestsTable: {"eventKey", "userId"},
	models.MatchesTable:        {"matchId"},
	models.ChatsTable:          {"chatId"},
	models.MessagesTable:       {"chatId", "messageId"},
	models.UserProfilesTable:   {"userhandle"},
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables:      make(map[string]map[string]map[string]types.AttributeValue),
		getFailures: make(map[string]error),
	}
}

func (f *fakeDynamo) failGet(table string, keyParts ...string) *fakeDynamo {
	f.getFailures[table+"|"+strings.Join(keyParts, "|")] = fmt.Errorf("injected read failure")
	return f
}

func attrString(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) itemKey(table string, item map[string]types.AttributeValue) string {
	parts := make([]string, 0, 2)
	for _, attr := range fakeKeySchemas[table] {
		parts = append(parts, attrString(item[attr]))
	}
	return strings.Join(parts, "|")
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		switch av := v.(type) {
		case *types.AttributeValueMemberS:
			out[k] = &types.AttributeValueMemberS{Value: av.Value}
		case *types.AttributeValueMemberN:
			out[k] = &types.AttributeValueMemberN{Value: av.Value}
		case *types.AttributeValueMemberBOOL:
			out[k] = &types.AttributeValueMemberBOOL{Value: av.Value}
		case *types.AttributeValueMemberSS:
			out[k] = &types.AttributeValueMemberSS{Value: append([]string(nil), av.Value...)}
		default:
			out[k] = v
		}
	}
	return out
}

func (f *fakeDynamo) table(name string) map[string]map[string]types.AttributeValue {
	if f.tables[name] == nil {
		f.tables[name] = make(map[string]map[string]types.AttributeValue)
	}
	return f.tables[name]
}

// --- condition and expression interpretation ---

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		return names[name]
	}
	return name
}

func checkCondition(condition string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return true
	}
	if strings.HasPrefix(condition, "attribute_not_exists(") {
		return item == nil
	}
	if strings.HasPrefix(condition, "attribute_exists(") {
		return item != nil
	}
	// equality: "<attr> = :<placeholder>"
	parts := strings.SplitN(condition, "=", 2)
	if len(parts) != 2 {
		return false
	}
	attr := resolveName(strings.TrimSpace(parts[0]), names)
	want := values[strings.TrimSpace(parts[1])]
	if item == nil {
		return false
	}
	return attrString(item[attr]) == attrString(want)
}

// splitTopLevel splits on commas outside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func applyUpdateExpression(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) {
	addPart, setPart := "", ""
	rest := strings.TrimSpace(expr)
	if strings.HasPrefix(rest, "ADD ") {
		body := rest[len("ADD "):]
		if idx := strings.Index(body, " SET "); idx >= 0 {
			addPart, setPart = body[:idx], body[idx+len(" SET "):]
		} else {
			addPart = body
		}
	} else if strings.HasPrefix(rest, "SET ") {
		setPart = rest[len("SET "):]
	}

	if addPart != "" {
		fields := strings.Fields(addPart)
		attr := resolveName(fields[0], names)
		added := values[fields[1]].(*types.AttributeValueMemberSS)
		set := map[string]struct{}{}
		if existing, ok := item[attr].(*types.AttributeValueMemberSS); ok {
			for _, v := range existing.Value {
				set[v] = struct{}{}
			}
		}
		for _, v := range added.Value {
			set[v] = struct{}{}
		}
		merged := make([]string, 0, len(set))
		for v := range set {
			merged = append(merged, v)
		}
		sort.Strings(merged)
		item[attr] = &types.AttributeValueMemberSS{Value: merged}
	}

	if setPart != "" {
		for _, assignment := range splitTopLevel(setPart) {
			parts := strings.SplitN(assignment, "=", 2)
			attr := resolveName(strings.TrimSpace(parts[0]), names)
			rhs := strings.TrimSpace(parts[1])
			if strings.HasPrefix(rhs, "if_not_exists(") {
				inner := strings.TrimSuffix(strings.TrimPrefix(rhs, "if_not_exists("), ")")
				innerParts := strings.SplitN(inner, ",", 2)
				checkAttr := resolveName(strings.TrimSpace(innerParts[0]), names)
				if _, exists := item[checkAttr]; exists {
					continue
				}
				rhs = strings.TrimSpace(innerParts[1])
			}
			item[attr] = values[rhs]
		}
	}
}

func conditionalCheckFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

// applyUpdateLocked runs one UpdateItem against current state. DynamoDB
// creates the item from the key when absent, but only after the condition
// passes against the pre-image.
func (f *fakeDynamo) applyUpdateLocked(table string, key map[string]types.AttributeValue, updateExpr, condExpr string, names map[string]string, values map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	id := f.itemKey(table, key)
	existing := f.table(table)[id]
	if !checkCondition(condExpr, existing, names, values) {
		return nil, conditionalCheckFailed()
	}
	item := copyItem(existing)
	if item == nil {
		item = copyItem(key)
	}
	applyUpdateExpression(item, updateExpr, names, values)
	f.table(table)[id] = item
	return copyItem(item), nil
}

// --- DynamoAPI ---

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *params.TableName
	id := f.itemKey(table, params.Key)
	if err, ok := f.getFailures[table+"|"+id]; ok {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: copyItem(f.table(table)[id])}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *params.TableName
	id := f.itemKey(table, params.Item)
	if params.ConditionExpression != nil {
		if !checkCondition(*params.ConditionExpression, f.table(table)[id], params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
			return nil, conditionalCheckFailed()
		}
	}
	f.table(table)[id] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(*params.KeyConditionExpression, "=", 2)
	attr := resolveName(strings.TrimSpace(parts[0]), params.ExpressionAttributeNames)
	want := attrString(params.ExpressionAttributeValues[strings.TrimSpace(parts[1])])

	var items []map[string]types.AttributeValue
	for _, item := range f.table(*params.TableName) {
		if attrString(item[attr]) == want {
			items = append(items, copyItem(item))
		}
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []map[string]types.AttributeValue
	for _, item := range f.table(*params.TableName) {
		items = append(items, copyItem(item))
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	condition := ""
	if params.ConditionExpression != nil {
		condition = *params.ConditionExpression
	}
	item, err := f.applyUpdateLocked(*params.TableName, params.Key, *params.UpdateExpression, condition, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := *params.TableName
	delete(f.table(table), f.itemKey(table, params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// All conditions are checked against the pre-image before anything is
	// applied: either every write lands or none do.
	for _, twi := range params.TransactItems {
		var table, condition string
		var names map[string]string
		var values, keyOrItem map[string]types.AttributeValue
		switch {
		case twi.Put != nil:
			table = *twi.Put.TableName
			keyOrItem = twi.Put.Item
			if twi.Put.ConditionExpression != nil {
				condition = *twi.Put.ConditionExpression
			}
			names, values = twi.Put.ExpressionAttributeNames, twi.Put.ExpressionAttributeValues
		case twi.Update != nil:
			table = *twi.Update.TableName
			keyOrItem = twi.Update.Key
			if twi.Update.ConditionExpression != nil {
				condition = *twi.Update.ConditionExpression
			}
			names, values = twi.Update.ExpressionAttributeNames, twi.Update.ExpressionAttributeValues
		default:
			continue
		}
		existing := f.table(table)[f.itemKey(table, keyOrItem)]
		if !checkCondition(condition, existing, names, values) {
			return nil, &types.TransactionCanceledException{
				Message: aws.String("Transaction cancelled"),
				CancellationReasons: []types.CancellationReason{
					{Code: aws.String("ConditionalCheckFailed")},
				},
			}
		}
	}

	for _, twi := range params.TransactItems {
		switch {
		case twi.Put != nil:
			table := *twi.Put.TableName
			f.table(table)[f.itemKey(table, twi.Put.Item)] = copyItem(twi.Put.Item)
		case twi.Update != nil:
			table := *twi.Update.TableName
			_, err := f.applyUpdateLocked(table, twi.Update.Key, *twi.Update.UpdateExpression, "", twi.Update.ExpressionAttributeNames, twi.Update.ExpressionAttributeValues)
			if err != nil {
				return nil, err
			}
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// newTestServices wires the full engine against one fake store.
type testServices struct {
	fake      *fakeDynamo
	dynamo    *DynamoService
	registry  *WatchRegistry
	interests *InterestService
	profiles  *UserProfileService
	detector  *DetectionService
	matches   *MatchService
	chats     *ChatService
	queries   *MatchQueryService
}

func newTestServices() *testServices {
	fake := newFakeDynamo()
	dynamo := &DynamoService{Client: fake}
	registry := NewWatchRegistry()
	interests := &InterestService{Dynamo: dynamo, Watch: registry}
	profiles := &UserProfileService{Dynamo: dynamo}
	return &testServices{
		fake:      fake,
		dynamo:    dynamo,
		registry:  registry,
		interests: interests,
		profiles:  profiles,
		detector:  &DetectionService{Dynamo: dynamo, Interests: interests, Profiles: profiles},
		matches:   &MatchService{Dynamo: dynamo},
		chats:     &ChatService{Dynamo: dynamo},
		queries:   &MatchQueryService{Dynamo: dynamo, Profiles: profiles},
	}
}
