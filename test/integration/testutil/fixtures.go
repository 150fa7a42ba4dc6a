//go:build integration

package testutil

import (
	"fmt"
	"testing"
	"time"

	"campusbook/pkg/model"
)

var (
	Admin   = model.Actor{ID: "adm-it", Role: model.RoleAdmin}
	Staff   = model.Actor{ID: "staff-it", Role: model.RoleStaff}
	Student = model.Actor{ID: "stu-it-1", Role: model.RoleStudent}
	Other   = model.Actor{ID: "stu-it-2", Role: model.RoleStudent}
)

type ResourceBuilder struct {
	res model.Resource
}

func NewResourceBuilder() *ResourceBuilder {
	return &ResourceBuilder{
		res: model.Resource{
			Kind:     model.ResourceKindEquipment,
			Name:     "Oscilloscope 4",
			Location: "Physics lab B",
			Category: "electronics",
		},
	}
}

func (b *ResourceBuilder) Room(capacity int) *ResourceBuilder {
	b.res.Kind = model.ResourceKindRoom
	b.res.Name = "Seminar room 2"
	b.res.Capacity = capacity
	return b
}

func (b *ResourceBuilder) WithStatus(status model.ResourceStatus) *ResourceBuilder {
	b.res.Status = status
	return b
}

func (b *ResourceBuilder) Build() model.Resource {
	return b.res
}

// CreateResource registers a resource as Admin and returns its id.
func CreateResource(t *testing.T, client *Client, res model.Resource) string {
	t.Helper()
	resp := client.As(Admin).POST(t, "/api/v1/resources", res)
	AssertStatusCode(t, resp, 201)

	var created model.Resource
	resp.Data(t, &created)
	if created.ID == "" {
		t.Fatalf("created resource has no id: %s", resp.Body)
	}
	return created.ID
}

// Day returns a date far enough ahead that no test collides with the
// completion sweep.
func Day(offset int) string {
	return time.Now().UTC().AddDate(0, 0, 30+offset).Format("2006-01-02")
}

func ReservationBody(date, start, end string) map[string]any {
	return map[string]any{
		"date":       date,
		"start_time": start,
		"end_time":   end,
		"purpose":    fmt.Sprintf("Integration run %s-%s", start, end),
	}
}

func ReservationsPath(resourceID string) string {
	return "/api/v1/resources/id/" + resourceID + "/reservations"
}
