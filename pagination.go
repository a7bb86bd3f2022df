package dynamodel

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func init() {
	// Register DynamoDB types with gob
	gob.Register(map[string]types.AttributeValue{})
	gob.Register(&types.AttributeValueMemberS{})
	gob.Register(&types.AttributeValueMemberN{})
	gob.Register(&types.AttributeValueMemberB{})
	gob.Register(&types.AttributeValueMemberSS{})
	gob.Register(&types.AttributeValueMemberNS{})
	gob.Register(&types.AttributeValueMemberBS{})
	gob.Register(&types.AttributeValueMemberM{})
	gob.Register(&types.AttributeValueMemberL{})
	gob.Register(&types.AttributeValueMemberNULL{})
	gob.Register(&types.AttributeValueMemberBOOL{})
}

// Result is a single page of entities produced by a find or scan
// invocation. Count reflects the number of items actually returned in this
// page, not the total matched by the filter. Next and Prev are opaque
// continuation cursors; clients pass them back verbatim to continue paging
// and never inspect their contents. Paging backward means passing Prev as
// the cursor together with a reversed sort direction. A Result is immutable
// after construction.
type Result struct {
	Items []Item // entities in this page, in scan order
	Count int    // len(Items)
	Next  string // forward continuation cursor, empty on the last page
	Prev  string // backward continuation cursor, empty on the first page
}

// MarshalCursor encodes a DynamoDB last evaluated key into an opaque,
// URL-safe cursor string. A nil or empty key yields an empty cursor.
func MarshalCursor(lastkey map[string]types.AttributeValue) (string, error) {
	if len(lastkey) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(lastkey); err != nil {
		return "", fmt.Errorf("failed to encode last key: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// UnmarshalCursor decodes a cursor produced by [MarshalCursor] back into a
// DynamoDB exclusive start key. An empty cursor yields a nil key.
func UnmarshalCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cursor: %w", err)
	}

	var key map[string]types.AttributeValue
	decoder := gob.NewDecoder(bytes.NewBuffer(data))
	if err := decoder.Decode(&key); err != nil {
		return nil, fmt.Errorf("failed to decode start key: %w", err)
	}

	return key, nil
}
