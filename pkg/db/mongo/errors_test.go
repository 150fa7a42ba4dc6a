package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{
			name: "transient label",
			err:  mongo.CommandError{Code: 251, Labels: []string{labelTransientTransaction}},
			want: true,
		},
		{
			name: "unknown commit result label",
			err:  mongo.CommandError{Labels: []string{labelUnknownCommitResult}},
			want: true,
		},
		{
			name: "write conflict",
			err:  mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"},
			want: true,
		},
		{
			name: "write conflict in write exception",
			err:  mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: writeConflictCode}}},
			want: true,
		},
		{
			name: "duplicate key",
			err:  mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}},
			want: false,
		},
		{
			name: "wrapped transient",
			err:  fmt.Errorf("transaction failed: %w", mongo.CommandError{Labels: []string{labelTransientTransaction}}),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	if !IsDuplicateKey(dup) {
		t.Error("expected duplicate key error to be detected")
	}
	if IsDuplicateKey(errors.New("other")) {
		t.Error("plain error is not a duplicate key")
	}
}
