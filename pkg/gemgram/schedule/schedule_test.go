package schedule

import (
	"testing"
	"time"

	"github.com/zawhtut/gemgram/pkg/gemgram/kv"
	"github.com/zawhtut/gemgram/pkg/gemgram/quota"
)

func TestCronSpec(t *testing.T) {
	tests := []struct {
		at      string
		want    string
		wantErr bool
	}{
		{at: "17:33", want: "33 17 * * *"},
		{at: "0:05", want: "5 0 * * *"},
		{at: "23:59", want: "59 23 * * *"},
		{at: " 9:00 ", want: "0 9 * * *"},
		{at: "1733", wantErr: true},
		{at: "24:00", wantErr: true},
		{at: "12:60", wantErr: true},
		{at: "ab:cd", wantErr: true},
		{at: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := CronSpec(tt.at)
		if tt.wantErr {
			if err == nil {
				t.Errorf("CronSpec(%q) = %q, want error", tt.at, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("CronSpec(%q) error: %v", tt.at, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CronSpec(%q) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestNewRejectsBadResetTime(t *testing.T) {
	q := quota.New(kv.NewMemoryStore(), 10, time.UTC, nil)
	if _, err := New(q, "25:00", time.UTC, nil); err == nil {
		t.Fatalf("New() accepted an invalid reset time")
	}
}

func TestStartStop(t *testing.T) {
	q := quota.New(kv.NewMemoryStore(), 10, time.UTC, nil)
	d, err := New(q, "17:33", time.UTC, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	d.Start()
	d.Stop() // must not hang with no job running
}
