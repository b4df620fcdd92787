package iges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		delims   delimiters
		want     []Param
		trailing string
		wantErr  bool
	}{
		{
			name:   "numbers",
			input:  "110,1,-2.5,3.D-2;",
			delims: delimiters{',', ';'},
			want: []Param{
				{ParamInteger, "110"}, {ParamInteger, "1"}, {ParamReal, "-2.5"}, {ParamReal, "3.D-2"},
			},
		},
		{
			name:   "hollerith holds delimiters",
			input:  "308,0,7Ha,b;c d,0;",
			delims: delimiters{',', ';'},
			want: []Param{
				{ParamInteger, "308"}, {ParamInteger, "0"}, {ParamString, "a,b;c d"}, {ParamInteger, "0"},
			},
		},
		{
			name:   "defaulted fields",
			input:  ",,5,;",
			delims: delimiters{',', ';'},
			want: []Param{
				{ParamDefault, ""}, {ParamDefault, ""}, {ParamInteger, "5"}, {ParamDefault, ""},
			},
		},
		{
			name:   "spaces between fields",
			input:  "126 , 1 ,  2.0   ;",
			delims: delimiters{',', ';'},
			want:   []Param{{ParamInteger, "126"}, {ParamInteger, "1"}, {ParamReal, "2.0"}},
		},
		{
			name:     "trailing comment",
			input:    "116,0.,0.,0.;  a note",
			delims:   delimiters{',', ';'},
			want:     []Param{{ParamInteger, "116"}, {ParamReal, "0."}, {ParamReal, "0."}, {ParamReal, "0."}},
			trailing: "  a note",
		},
		{
			name:   "custom delimiters",
			input:  "1H/|2H//|4.5|",
			delims: delimiters{'|', '/'},
			want:   nil,
			// the record ends at the first unquoted '/' which never appears
			wantErr: true,
		},
		{
			name:   "custom delimiters terminated",
			input:  "1H||1H/|4.5/",
			delims: delimiters{'|', '/'},
			want:   []Param{{ParamString, "|"}, {ParamString, "/"}, {ParamReal, "4.5"}},
		},
		{name: "missing terminator", input: "110,1", delims: delimiters{',', ';'}, wantErr: true},
		{name: "short hollerith", input: "5Hab;", delims: delimiters{',', ';'}, wantErr: true},
		{name: "missing delimiter", input: "1 2;", delims: delimiters{',', ';'}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, trailing, err := parseParams(tt.input, tt.delims)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.trailing, trailing)
		})
	}
}

func TestFormatReal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0."},
		{1, "1."},
		{-2.5, "-2.5"},
		{0.1, "0.1"},
		{123456.789, "123456.789"},
		{1e-12, "1.D-12"},
		{2.5e20, "2.5D+20"},
	}
	for _, tt := range tests {
		got := formatReal(tt.in)
		assert.Equal(t, tt.want, got)
		back, err := parseReal(got)
		require.NoError(t, err)
		assert.Equal(t, tt.in, back)
	}
}

func TestFormatRecordSplitsLongStrings(t *testing.T) {
	long := hollerith("0123456789012345678901234567890123456789")
	lines := formatRecord([]string{"308", "0", long, "0"}, ',', ';', 20)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 20)
	}
	var joined string
	for i, l := range lines {
		if i < len(lines)-1 && len(l) < 20 {
			l += "                    "[:20-len(l)]
		}
		joined += l
	}
	params, _, err := parseParams(joined, delimiters{',', ';'})
	require.NoError(t, err)
	require.Len(t, params, 4)
	assert.Equal(t, "0123456789012345678901234567890123456789", params[2].Text)
}
