package utils

import "testing"

func TestParseMaxOccupancy(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{name: "plain digit", value: "2", want: 2},
		{name: "digit with unit", value: "4人", want: 4},
		{name: "multi digit", value: "12", want: 12},
		{name: "chinese single", value: "三", want: 3},
		{name: "chinese liang", value: "兩", want: 2},
		{name: "chinese ten", value: "十", want: 10},
		{name: "ten plus one", value: "十一", want: 11},
		{name: "ten plus seven", value: "十七", want: 17},
		{name: "two tens", value: "二十", want: 20},
		{name: "two tens three", value: "二十三", want: 23},
		{name: "chinese with unit", value: "五人", want: 5},
		{name: "empty string", value: "", want: 1},
		{name: "unrecognized text", value: "未知", want: 1},
		{name: "latin letters", value: "abc", want: 1},
		{name: "digit wins over chinese", value: "最多3人，約三位", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMaxOccupancy(tt.value)
			if got != tt.want {
				t.Errorf("ParseMaxOccupancy(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}
