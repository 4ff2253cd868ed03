package schedule

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", NewTimeOfDay(0, 0), false},
		{"09:00", NewTimeOfDay(9, 0), false},
		{"9:30", NewTimeOfDay(9, 30), false},
		{"23:59", NewTimeOfDay(23, 59), false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if s := NewTimeOfDay(9, 5).String(); s != "09:05" {
		t.Errorf("String() = %q, want %q", s, "09:05")
	}
	if s := NewTimeOfDay(17, 30).String(); s != "17:30" {
		t.Errorf("String() = %q, want %q", s, "17:30")
	}
}

func TestTimeOfDayValid(t *testing.T) {
	if TimeOfDayUnset.Valid() {
		t.Error("unset time should not be valid")
	}
	if !NewTimeOfDay(0, 0).Valid() {
		t.Error("midnight should be valid")
	}
	if NewTimeOfDay(24, 0).Valid() {
		t.Error("24:00 should not be valid")
	}
}
