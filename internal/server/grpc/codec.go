package grpc

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type taskMessage struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	DueDate            string     `json:"dueDate,omitempty"`
	Completed          bool       `json:"completed"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	ExtensionCount     int        `json:"extensionCount"`
	OriginalDueDate    string     `json:"originalDueDate,omitempty"`
	TotalExtensionDays int        `json:"totalExtensionDays"`
	Overdue            bool       `json:"overdue"`
}

func toTaskMessage(t *models.Task, today time.Time) taskMessage {
	m := taskMessage{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		DueDate:            timex.FormatDate(t.DueDate),
		Completed:          t.Completed,
		CompletedAt:        t.CompletedAt,
		CreatedAt:          t.CreatedAt,
		ExtensionCount:     t.ExtensionCount,
		TotalExtensionDays: t.TotalExtensionDays(),
		Overdue:            t.IsOverdue(today),
	}
	if t.OriginalDueDate != nil {
		m.OriginalDueDate = timex.FormatDate(*t.OriginalDueDate)
	}
	return m
}

// toStruct converts any JSON-encodable value with an object shape into a
// Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

// intField reads a whole number. A missing field reads as 0.
func intField(in *structpb.Struct, key string) (int, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, nil
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, fmt.Errorf("%w: %s must be a number", common.ErrorValidation, key)
	}
	n := v.GetNumberValue()
	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a whole number", common.ErrorValidation, key)
	}
	return int(n), nil
}

// dateField reads a "YYYY-MM-DD" value. A missing field reads as the zero
// time.
func dateField(in *structpb.Struct, key string) (time.Time, error) {
	s := stringField(in, key)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := timex.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", common.ErrorValidation, key)
	}
	return d, nil
}
