package store

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestTransactionsUnsupported(t *testing.T) {
	standalone := mongo.CommandError{
		Code:    20,
		Name:    "IllegalOperation",
		Message: "Transaction numbers are only allowed on a replica set member or mongos",
	}
	if !transactionsUnsupported(standalone) {
		t.Error("standalone rejection should select the ordered-swap path")
	}
	if !transactionsUnsupported(fmt.Errorf("running transaction: %w", standalone)) {
		t.Error("wrapped standalone rejection should still match")
	}

	// Anything else, including other IllegalOperation errors and mid-commit
	// failures, must surface instead of silently retrying untransacted.
	for _, err := range []error{
		mongo.CommandError{Code: 20, Name: "IllegalOperation", Message: "cannot do this"},
		mongo.CommandError{Code: 112, Name: "WriteConflict", Message: "WriteConflict"},
		mongo.CommandError{Code: 251, Name: "NoSuchTransaction", Message: "Transaction was aborted"},
		errors.New("network timeout"),
	} {
		if transactionsUnsupported(err) {
			t.Errorf("error %v should not be treated as unsupported topology", err)
		}
	}
}
