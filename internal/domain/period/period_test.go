package period

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{"2026-02", Period{Year: 2026, Month: time.February}, false},
		{"1999-12", Period{Year: 1999, Month: time.December}, false},
		{"1900-01", Period{Year: 1900, Month: time.January}, false},
		{"0001-01", Period{}, true},
		{"1899-12", Period{}, true},
		{"Feb-2026", Period{}, true},
		{"2026-13", Period{}, true},
		{"2026-2", Period{}, true},
		{"", Period{}, true},
	}
	for _, c := range cases {
		got, err := Parse(c.input)
		if c.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPeriod, c.input)
			continue
		}
		require.NoError(t, err, c.input)
		assert.Equal(t, c.want, got)
	}
}

func TestNew_RejectsOutOfRangeMonth(t *testing.T) {
	_, err := New(2026, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = New(1, 1)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	p, err := New(2026, 4)
	require.NoError(t, err)
	assert.Equal(t, "2026-04", p.Key())
}

func TestPeriod_Bounds(t *testing.T) {
	p := MustParse("2024-02")
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, "2024-03", p.Next().Key())
	assert.Equal(t, "2024-01", p.Prev().Key())
	assert.Equal(t, "2023-12", MustParse("2024-01").Prev().Key())
}

func TestPeriod_Compare(t *testing.T) {
	a := MustParse("2025-12")
	b := MustParse("2026-01")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(MustParse("2025-12")))
}

func TestPeriod_JSON(t *testing.T) {
	type wrapper struct {
		Period Period `json:"period"`
	}
	b, err := json.Marshal(wrapper{Period: MustParse("2026-02")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":"2026-02"}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"period":"2025-07"}`), &w))
	assert.Equal(t, MustParse("2025-07"), w.Period)

	err = json.Unmarshal([]byte(`{"period":"0001-01"}`), &w)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	assert.Error(t, json.Unmarshal([]byte(`{"period":"Jul-2025"}`), &w))
}
