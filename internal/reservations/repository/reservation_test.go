package repository

import (
	"testing"
	"time"

	"campusbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildSearchFilter(t *testing.T) {
	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name   string
		filter model.ReservationFilter
		want   bson.M
	}{
		{
			name:   "empty filter matches everything",
			filter: model.ReservationFilter{},
			want:   bson.M{},
		},
		{
			name: "identity filters",
			filter: model.ReservationFilter{
				ResourceID:  "r1",
				RequesterID: "stu-1",
				Status:      model.ReservationStatusPending,
			},
			want: bson.M{
				"resource_id":  "r1",
				"requester_id": "stu-1",
				"status":       model.ReservationStatusPending,
			},
		},
		{
			name:   "time window uses overlap bounds",
			filter: model.ReservationFilter{From: &from, To: &to},
			want: bson.M{
				"start_time": bson.M{"$lt": to},
				"end_time":   bson.M{"$gt": from},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchFilter(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("filter = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				gv, ok := got[k]
				if !ok {
					t.Errorf("missing key %s", k)
					continue
				}
				if m, isMap := v.(bson.M); isMap {
					gm, _ := gv.(bson.M)
					for op, bound := range m {
						if gm[op] != bound {
							t.Errorf("%s.%s = %v, want %v", k, op, gm[op], bound)
						}
					}
					continue
				}
				if gv != v {
					t.Errorf("%s = %v, want %v", k, gv, v)
				}
			}
		})
	}
}

func TestBuildFieldUpdate(t *testing.T) {
	at := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	purpose := "Thesis review"

	tests := []struct {
		name  string
		patch FieldPatch
		want  []string
	}{
		{"purpose only", FieldPatch{Purpose: &purpose}, []string{"purpose", "updated_at"}},
		{"end only", FieldPatch{EndTime: &end}, []string{"end_time", "updated_at"}},
		{"empty patch", FieldPatch{}, []string{"updated_at"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update := buildFieldUpdate(tt.patch, at)
			if len(update) != 1 {
				t.Fatalf("update = %v, want only $set", update)
			}
			set, _ := update["$set"].(bson.M)
			if len(set) != len(tt.want) {
				t.Fatalf("$set = %v, want keys %v", set, tt.want)
			}
			for _, k := range tt.want {
				if _, ok := set[k]; !ok {
					t.Errorf("$set is missing %s", k)
				}
			}
		})
	}

	set := buildFieldUpdate(FieldPatch{EndTime: &end}, at)["$set"].(bson.M)
	if set["end_time"] != end {
		t.Errorf("end_time = %v, want %v", set["end_time"], end)
	}
}

func TestLockKey(t *testing.T) {
	if got := LockKey("65f0000000000000000000bb"); got != "reservation_lock_65f0000000000000000000bb" {
		t.Errorf("LockKey = %q", got)
	}
}
