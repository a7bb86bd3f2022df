// Package modelmock provides test doubles for dynamodel: an
// expectation-based mock of the DynamoDB client interface and helpers for
// connecting to a DynamoDB Local instance.
//
// # Mock Client
//
// MockClient lets tests intercept individual DynamoDB operations:
//
//	client := modelmock.NewMockClient(t)
//	client.GetFunc = func(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
//	    return &dynamodb.GetItemOutput{Item: seeded}, nil
//	}
//	table, _ := dynamodel.New("test-table", client, schema)
//
// Operations without an expectation fail the test immediately.
//
// # DynamoDB Local
//
// LocalDynamoDB wraps a client pointed at a locally running DynamoDB
// instance for integration tests:
//
//	local := modelmock.NewLocalDynamoDB(8000)
//	if !local.IsAvailable(ctx) {
//	    t.Skip("DynamoDB Local is not running")
//	}
package modelmock
