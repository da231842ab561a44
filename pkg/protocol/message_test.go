package protocol

import (
	"encoding/json"
	"testing"

	"github.com/teslashibe/go-eyectl/pkg/gaze"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "gaze message",
			msgType: TypeGaze,
			data:    GazeData{X: 10, Y: 20},
		},
		{
			name:    "action message",
			msgType: TypeAction,
			data:    ActionData{Action: "click"},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unencodable data",
			msgType: TypeStats,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	if _, err := ParseMessage([]byte("not json")); err == nil {
		t.Error("ParseMessage() should fail on invalid JSON")
	}
	if _, err := ParseMessage([]byte(`{"data":{}}`)); err == nil {
		t.Error("ParseMessage() should fail without a type")
	}
}

func TestGazeData_EnvelopeTimestamp(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"gaze","ts":1234,"data":{"x":5,"y":6}}`))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	g, err := msg.GetGazeData()
	if err != nil {
		t.Fatalf("GetGazeData() error = %v", err)
	}

	s := g.Sample()
	if s.X != 5 || s.Y != 6 || s.TimestampMs != 1234 {
		t.Errorf("Sample = %+v, want {5 6 1234}", s)
	}
}

func TestEyesData_Landmarks(t *testing.T) {
	raw := `{"type":"eyes","ts":99,"data":{
		"left":[[0,10],[3,8],[6,9],[20,10],[6,11],[3,12]],
		"right":[[0,10],[3,8],[6],[20,10],[6,11],[3,12]]}}`

	msg, err := ParseMessage([]byte(raw))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	eyes, err := msg.GetEyesData()
	if err != nil {
		t.Fatalf("GetEyesData() error = %v", err)
	}
	if eyes.TS != 99 {
		t.Errorf("TS = %d, want 99 from envelope", eyes.TS)
	}

	fs := eyes.EyeFeatures()
	if len(fs.Left) != 6 {
		t.Errorf("Left landmarks = %d, want 6", len(fs.Left))
	}
	if fs.Right != nil {
		t.Errorf("Malformed right side should be nil, got %v", fs.Right)
	}
	if got := gaze.OpennessRatio(fs.Right); got != gaze.DefaultOpenness {
		t.Errorf("Malformed side ratio = %v, want default", got)
	}
	if got := gaze.OpennessRatio(fs.Left); got < 0.19 || got > 0.21 {
		t.Errorf("Left ratio = %v, want 0.2", got)
	}
}

func TestNewEyesMessage(t *testing.T) {
	eyes := gaze.EyeFeatureSet{
		Left: gaze.LandmarkSet{{X: 1, Y: 2}, {X: 3, Y: 4}},
	}
	msg, err := NewEyesMessage(eyes, 500)
	if err != nil {
		t.Fatalf("NewEyesMessage() error = %v", err)
	}
	if msg.Timestamp != 500 {
		t.Errorf("Timestamp = %d, want 500", msg.Timestamp)
	}

	data, _ := msg.GetEyesData()
	if len(data.Left) != 2 || data.Left[1][0] != 3 || data.Left[1][1] != 4 {
		t.Errorf("Left = %v, want [[1 2] [3 4]]", data.Left)
	}
	if data.Right != nil {
		t.Errorf("Right = %v, want nil", data.Right)
	}
}

func TestNewScrollMessage(t *testing.T) {
	msg, err := NewScrollMessage(gaze.ScrollTick{Direction: gaze.DirectionUp, Amount: 5})
	if err != nil {
		t.Fatalf("NewScrollMessage() error = %v", err)
	}

	var raw map[string]interface{}
	b, _ := msg.Bytes()
	json.Unmarshal(b, &raw)
	if raw["type"] != "scroll" {
		t.Errorf("type = %v, want scroll", raw["type"])
	}

	data, err := msg.GetScrollData()
	if err != nil {
		t.Fatalf("GetScrollData() error = %v", err)
	}
	if data.Direction != "up" || data.Amount != 5 || data.DeltaY != -5 {
		t.Errorf("ScrollData = %+v, want up/5/-5", data)
	}
}

func TestNewActionMessage(t *testing.T) {
	msg, _ := NewActionMessage(gaze.ActionNavigateBack, gaze.Sample{X: 12, Y: 34})
	data, err := msg.GetActionData()
	if err != nil {
		t.Fatalf("GetActionData() error = %v", err)
	}
	if data.Action != "navigate_back" || data.X != 12 || data.Y != 34 {
		t.Errorf("ActionData = %+v", data)
	}
}

func TestSettingsMessage_Patch(t *testing.T) {
	on := true
	msg, _ := NewSettingsMessage(gaze.SettingsPatch{SingleBlinkEnabled: &on})

	var patch gaze.SettingsPatch
	if err := msg.ParseData(&patch); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if patch.SingleBlinkEnabled == nil || !*patch.SingleBlinkEnabled {
		t.Error("Expected single_blink=true in patch")
	}
	if patch.AutoScrollEnabled != nil {
		t.Error("Absent fields should stay nil")
	}
}

func TestMillis(t *testing.T) {
	if Millis(-5) != 0 {
		t.Error("Negative timestamps should clamp to 0")
	}
	if Millis(1700000000000) != 1700000000000 {
		t.Error("Positive timestamps should pass through")
	}
}
